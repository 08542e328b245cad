/*
File Name:  Sanitize.go

Path sanitization for catalog entries.
*/

package sanitize

import (
	"path"
	"strings"
)

const PATH_MAX_LENGTH = 32767 // Windows Maximum Path Length for UNC paths

// PathDirectory sanitizes a directory path (without filename).
func PathDirectory(directory string) string {
	// Enforced forward slashes as directory separator and clean the path.
	directory = strings.ReplaceAll(directory, "\\", "/")
	directory = path.Clean(directory)

	// No slash at the beginning and end to save space.
	directory = strings.Trim(directory, "/")

	// Enforce max length.
	if len(directory) > PATH_MAX_LENGTH {
		directory = directory[:PATH_MAX_LENGTH]
	}

	return directory
}

// PathFile sanitizes the filename.
func PathFile(filename string) string {
	// Enforce max filename length.
	if len(filename) > PATH_MAX_LENGTH {
		filename = filename[:PATH_MAX_LENGTH]
	}

	return filename
}
