package meta

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
)

// Dynamic-range meter logs come in many shapes: bare "DR12" lines, "DR = 12",
// "Dynamic Range: 12", and the summary lines of full album reports. The
// Cyrillic variant appears in logs from Russian release trackers.
var drPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^\s*DR\s*(\d{1,2})\s*$`),
	regexp.MustCompile(`(?i)DR\s*=\s*(\d{1,2})`),
	regexp.MustCompile(`(?i)Dynamic Range\s*[:=]\s*(\d{1,2})`),
	regexp.MustCompile(`(?i)Official DR value:\s*(?:DR)?\s*(\d{1,2})`),
	regexp.MustCompile(`(?i)Official EP/Album DR:\s*(?:DR)?\s*(\d{1,2})`),
	regexp.MustCompile(`Реальные значения DR:\s*(?:DR)?\s*(\d{1,2})`),
	regexp.MustCompile(`(?i)^\s*DR(\d{1,2})\s*$`),
}

// ValidDR reports whether dr is inside the plausible meter range.
func ValidDR(dr int) bool {
	return dr >= 1 && dr <= 20
}

// ParseDRLog reads a DR meter log and returns the highest valid DR value
// found, false when the log holds none.
func ParseDRLog(r io.Reader) (int, bool) {
	best := 0
	found := false

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		for _, pat := range drPatterns {
			m := pat.FindStringSubmatch(line)
			if m == nil {
				continue
			}
			dr, err := strconv.Atoi(m[1])
			if err != nil || !ValidDR(dr) {
				continue
			}
			if !found || dr > best {
				best = dr
				found = true
			}
		}
	}
	return best, found
}

// ScanDirDR looks for DR meter logs next to an album's tracks: every .txt
// and .log file in dir is parsed and the highest valid DR value wins.
// Returns false when the directory holds no usable log.
func ScanDirDR(dir string) (int, bool) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		log.Debug().Err(err).Str("dir", dir).Msg("meta: cannot read directory for DR logs")
		return 0, false
	}

	best := 0
	found := false
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".txt", ".log":
		default:
			continue
		}

		path := filepath.Join(dir, entry.Name())
		f, err := os.Open(path)
		if err != nil {
			log.Debug().Err(err).Str("path", path).Msg("meta: cannot open DR log")
			continue
		}
		dr, ok := ParseDRLog(f)
		f.Close()
		if ok && (!found || dr > best) {
			best = dr
			found = true
		}
	}
	return best, found
}
