package ports

// FileSystem abstracts file system operations.
type FileSystem interface {
	// ReadFile reads the entire contents of a file.
	ReadFile(path string) ([]byte, error)

	// WriteFile writes data to a file, creating parent directories.
	WriteFile(path string, data []byte) error

	// MkdirAll creates a directory and all parent directories.
	MkdirAll(path string) error

	// Exists checks if a file or directory exists.
	Exists(path string) (bool, error)

	// ListFiles returns the names (not paths) of regular files in dir whose
	// extension equals ext, sorted. ext includes the dot, e.g. ".svg".
	ListFiles(dir, ext string) ([]string, error)
}
