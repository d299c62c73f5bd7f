package sqlitemig

import (
	"embed"
)

//go:embed *.sql
var assets embed.FS

func AssetNames() []string {
	entries, err := assets.ReadDir(".")
	if err != nil {
		panic(err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	return names
}

func Asset(name string) ([]byte, error) {
	return assets.ReadFile(name)
}
