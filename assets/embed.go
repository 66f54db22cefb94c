package assets

import (
	"embed"
	"io"
)

//go:embed countries.json
var FS embed.FS

// CountriesFile is the name of the embedded default dataset.
const CountriesFile = "countries.json"

// OpenCountries opens the embedded countries dataset for reading.
func OpenCountries() (io.ReadCloser, error) {
	return FS.Open(CountriesFile)
}
