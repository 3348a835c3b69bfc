// Package asset pins the client-side script URLs embedded in the via
// shell and serves the bundled reactive client library.
//
// via treats the client-side reactive library as a black box (see
// spec.md §1): this package only owns the URL it is pinned at, its
// integrity hash, and the HTTP handler that serves the bundled file.
// The pattern — pin a name to a URL, vendor it locally, compute an SRI
// hash — is adapted from Buffkit's import-map manager.
package asset

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Map is the JSON shape of a browser import map.
type Map struct {
	Imports map[string]string `json:"imports"`
}

// Manager pins asset names to URLs and tracks their integrity hashes.
// One Manager is owned by the Application and shared across every
// rendered shell.
type Manager struct {
	imports   map[string]string
	integrity map[string]string
	devMode   bool
}

// NewManager creates a Manager with no pins. Callers typically follow
// with Pin to register the bundled reactive library.
func NewManager(devMode bool) *Manager {
	return &Manager{
		imports:   make(map[string]string),
		integrity: make(map[string]string),
		devMode:   devMode,
	}
}

// Pin registers name at url, computing an SRI hash over content so the
// shell's script tag can carry an integrity attribute.
func (m *Manager) Pin(name, url string, content []byte) {
	m.imports[name] = url
	m.integrity[name] = sriHash(content)
}

// URL returns the URL pinned under name, or "" if unpinned.
func (m *Manager) URL(name string) string {
	return m.imports[name]
}

// Integrity returns the SRI hash pinned under name, or "" if unpinned.
func (m *Manager) Integrity(name string) string {
	return m.integrity[name]
}

// ScriptTag renders a <script> tag loading name, with its integrity
// attribute unless the Manager is in dev mode, for embedding in the
// shell's head fragment.
func (m *Manager) ScriptTag(name string) string {
	url := m.imports[name]
	if url == "" {
		return ""
	}
	if integrity := m.integrity[name]; integrity != "" && !m.devMode {
		return fmt.Sprintf(`<script src=%q integrity=%q crossorigin="anonymous"></script>`, url, integrity)
	}
	return fmt.Sprintf(`<script src=%q></script>`, url)
}

// ImportMapTag renders the whole pin set as a <script type="importmap">
// block, matching the browser import-map spec.
func (m *Manager) ImportMapTag() (string, error) {
	data, err := json.Marshal(Map{Imports: m.imports})
	if err != nil {
		return "", fmt.Errorf("asset: marshal import map: %w", err)
	}
	return fmt.Sprintf("<script type=\"importmap\">%s</script>", data), nil
}

// ServeBundle returns an http.HandlerFunc serving the given bundled
// client script verbatim with immutable caching, matching §6's
// `GET /_datastar.js` contract.
func ServeBundle(content []byte, modTime time.Time) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/javascript")
		if !strings.Contains(r.Header.Get("Cache-Control"), "no-cache") {
			w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
		}
		http.ServeContent(w, r, "via.js", modTime, strings.NewReader(string(content)))
	}
}

func sriHash(content []byte) string {
	sum := sha256.Sum256(content)
	return "sha256-" + base64.StdEncoding.EncodeToString(sum[:])
}
