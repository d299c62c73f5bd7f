package lsql

import (
	"os"

	ltest "github.com/splitpilot/splitpilot/pkg/test"
)

// NewTestingConfig returns a config for a throwaway file-backed sqlite
// database that is removed when the test finishes.
func NewTestingConfig(t ltest.T) (*Config, error) {
	file, err := os.CreateTemp("", "")
	if err != nil {
		return nil, err
	}
	t.Cleanup(func() {
		_, err := file.Stat()
		if !os.IsNotExist(err) {
			os.RemoveAll(file.Name())
		}
	})
	return &Config{
		Engine:       "sqlite",
		DatabaseName: "test",
		Address:      file.Name(),
	}, nil
}
