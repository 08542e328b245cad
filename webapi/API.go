/*
File Name:  API.go

Local, read-only control plane. It exposes the catalog and lets a caller
start and poll fetch operations; it never participates in the
block-exchange protocol itself, so it carries none of the core's
concurrency or correctness weight.
*/

package webapi

import (
	"encoding/hex"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	core "github.com/netdrop/node"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/spf13/afero"
)

// WSUpgrader upgrades /events connections. It allows all origins since the
// control plane is meant for local, trusted use.
var WSUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Instance is the running control plane.
type Instance struct {
	Backend *core.Backend
	FS      afero.Fs
	Router  *mux.Router

	fetchesMutex sync.RWMutex
	fetches      map[string]*fetchState

	bus *eventBus
}

type fetchState struct {
	Done bool
	Err  string
}

// Start builds and returns an Instance wired to backend, but does not bind
// any socket; serve its Router from your own http.Server, or use Serve.
func Start(backend *core.Backend, fs afero.Fs) *Instance {
	api := &Instance{
		Backend: backend,
		FS:      fs,
		Router:  mux.NewRouter(),
		fetches: make(map[string]*fetchState),
		bus:     newEventBus(),
	}
	api.wireEvents()

	api.Router.HandleFunc("/status", api.apiStatus).Methods("GET")
	api.Router.HandleFunc("/catalog", api.apiCatalog).Methods("GET")
	api.Router.HandleFunc("/fetch", api.apiFetchStart).Methods("POST")
	api.Router.HandleFunc("/fetch/{id}", api.apiFetchStatus).Methods("GET")
	api.Router.HandleFunc("/events", api.apiEvents).Methods("GET")

	return api
}

// Serve blocks serving the control plane on listen (IP:Port).
func (api *Instance) Serve(listen string) error {
	server := &http.Server{
		Addr:         listen,
		Handler:      api.Router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	return server.ListenAndServe()
}

func encodeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(data)
}

type apiResponseStatus struct {
	CatalogFiles int    `json:"catalog_files"`
	CatalogBytes uint64 `json:"catalog_bytes"`
}

func (api *Instance) apiStatus(w http.ResponseWriter, r *http.Request) {
	count, totalBytes := 0, uint64(0)
	api.Backend.Catalog.ForEach(func(file *core.LocalFile) {
		count++
		totalBytes += file.Metadata.Size
	})

	encodeJSON(w, apiResponseStatus{CatalogFiles: count, CatalogBytes: totalBytes})
}

type apiCatalogEntry struct {
	WholeHash string `json:"whole_hash"`
	Size      uint64 `json:"size"`
	Blocks    uint64 `json:"blocks"`
	LocalPath string `json:"local_path"`
}

func (api *Instance) apiCatalog(w http.ResponseWriter, r *http.Request) {
	var entries []apiCatalogEntry
	api.Backend.Catalog.ForEach(func(file *core.LocalFile) {
		entries = append(entries, apiCatalogEntry{
			WholeHash: hex.EncodeToString(file.Metadata.WholeHash),
			Size:      file.Metadata.Size,
			Blocks:    file.Metadata.BlockCount(),
			LocalPath: file.LocalPath,
		})
	})

	encodeJSON(w, entries)
}

type apiFetchRequest struct {
	Hash        string `json:"hash"`
	Destination string `json:"destination"`
}

type apiFetchResponse struct {
	ID string `json:"id"`
}

func (api *Instance) apiFetchStart(w http.ResponseWriter, r *http.Request) {
	var req apiFetchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "", http.StatusBadRequest)
		return
	}

	wholeHash, err := hex.DecodeString(req.Hash)
	if err != nil {
		http.Error(w, "invalid hash", http.StatusBadRequest)
		return
	}

	id := uuid.New().String()
	state := &fetchState{}

	api.fetchesMutex.Lock()
	api.fetches[id] = state
	api.fetchesMutex.Unlock()

	go func() {
		err := api.Backend.Request(api.FS, wholeHash, req.Destination)

		api.fetchesMutex.Lock()
		state.Done = true
		if err != nil {
			state.Err = err.Error()
		}
		api.fetchesMutex.Unlock()
	}()

	encodeJSON(w, apiFetchResponse{ID: id})
}

type apiFetchStatusResponse struct {
	Done  bool   `json:"done"`
	Error string `json:"error,omitempty"`
}

func (api *Instance) apiFetchStatus(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	api.fetchesMutex.RLock()
	state, found := api.fetches[id]
	api.fetchesMutex.RUnlock()

	if !found {
		http.Error(w, "", http.StatusNotFound)
		return
	}

	encodeJSON(w, apiFetchStatusResponse{Done: state.Done, Error: state.Err})
}

// apiEvents upgrades to a websocket and streams Hooks events. Start chains
// the Backend's Hooks into the Instance's internal event feed (wireEvents);
// this handler only forwards whatever is published there.
func (api *Instance) apiEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := WSUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	ch := api.events()
	defer api.bus.unsubscribe(ch)

	for event := range ch {
		if err := conn.WriteJSON(event); err != nil {
			return
		}
	}
}
