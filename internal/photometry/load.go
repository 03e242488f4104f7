package photometry

import (
	"os"
	"path/filepath"
	"strings"

	"luxera/internal/errs"
)

// Load reads a photometry asset file from disk and dispatches to the
// format-specific parser selected by its extension (.ies, .ldt, .cie).
// Callers that want content-hash caching (internal/photocache) should
// compute CanonicalPhotometry.Hash() after Load and check the cache
// first; Load itself always parses.
func Load(path string, rec *errs.Recovery) (*CanonicalPhotometry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.NewParseError(path, 0, err.Error())
	}
	return Parse(data, formatFromExt(path), path, rec)
}

// Parse dispatches to the format-specific parser for an already-read
// buffer, given an explicit format (one of "ies", "ldt", "cie").
func Parse(data []byte, format, sourcePath string, rec *errs.Recovery) (*CanonicalPhotometry, error) {
	switch format {
	case "ies":
		return ParseIES(data, sourcePath, rec)
	case "ldt":
		return ParseEULUMDAT(data, sourcePath, rec)
	case "cie":
		return ParseCIE(data, sourcePath, rec)
	default:
		return nil, errs.NewRuntimeError("unsupported photometry format: " + format)
	}
}

func formatFromExt(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".ies":
		return "ies"
	case ".ldt":
		return "ldt"
	case ".cie", ".itab":
		return "cie"
	default:
		return ""
	}
}
