// Package cache implements cosmwasm-guard's on-disk analysis cache: a
// manifest mapping each source file's content hash to a compressed,
// gob-encoded artifact holding its extracted contract model and lowered IR.
// Grounded in original_source/crates/core/src/cache.rs's CacheManager, with
// bincode+sha2+serde_json replaced by encoding/gob+crypto/sha256+encoding/json
// and a manifest entry id minted with google/uuid instead of a derived
// filename, so concurrent writers never collide on the artifact path.
package cache

import (
	"bytes"
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"github.com/klauspost/compress/gzip"

	"github.com/lucasamorimca/cosmwasm-guard/internal/contract"
	"github.com/lucasamorimca/cosmwasm-guard/internal/finding"
	"github.com/lucasamorimca/cosmwasm-guard/internal/guarderr"
	"github.com/lucasamorimca/cosmwasm-guard/internal/ir"
)

// DirName is the conventional cache directory name created under a crate
// root; discover.RustFiles already skips it since it begins with a dot.
const DirName = ".cosmwasm-guard-cache"

// schemaVersion is bumped whenever Artifact's shape changes incompatibly;
// a manifest written by an older version is discarded rather than decoded.
const schemaVersion = 1

// Artifact is the per-file cached result: the extracted contract model
// (minus its tree-sitter handles, which cannot outlive the process that
// parsed them) plus its lowered, pure-data SSA IR.
type Artifact struct {
	EntryPoints  []contract.EntryPoint
	MessageEnums []contract.MessageEnum
	StateItems   []contract.StateItem
	Functions    []FunctionModel
	IrFunctions  []*ir.FunctionIr
}

// FunctionModel is the serializable projection of contract.FunctionInfo —
// everything except the Body/Tree tree-sitter handles, which are rebuilt by
// re-parsing on a cache miss.
type FunctionModel struct {
	Name       string
	Params     []contract.ParamInfo
	ReturnType string
	Span       finding.Span
	BodyText   string
}

type manifestEntry struct {
	Hash         string `json:"hash"`
	ArtifactFile string `json:"artifact_file"`
}

type manifest struct {
	SchemaVersion int                      `json:"schema_version"`
	Files         map[string]manifestEntry `json:"files"`
}

// Manager manages file-level caching of parsed contract models and IR under
// a single cache directory. Safe for concurrent Lookup; Store/Flush/Clear
// serialize on an internal mutex since they mutate the shared manifest.
type Manager struct {
	dir      string
	mu       sync.Mutex
	manifest manifest
}

// Open opens or creates a cache rooted at dir, discarding any manifest
// written by an incompatible schema version.
func Open(dir string) (*Manager, error) {
	if err := os.MkdirAll(filepath.Join(dir, "artifacts"), 0o755); err != nil {
		return nil, guarderr.Wrap(guarderr.Io, "failed to create cache directory", err)
	}

	m := &Manager{dir: dir, manifest: manifest{SchemaVersion: schemaVersion, Files: map[string]manifestEntry{}}}

	data, err := os.ReadFile(manifestPath(dir))
	switch {
	case os.IsNotExist(err):
		return m, nil
	case err != nil:
		return nil, guarderr.Wrap(guarderr.Io, "failed to read cache manifest", err)
	}

	var loaded manifest
	if jsonErr := json.Unmarshal(data, &loaded); jsonErr == nil && loaded.SchemaVersion == schemaVersion {
		m.manifest = loaded
		if m.manifest.Files == nil {
			m.manifest.Files = map[string]manifestEntry{}
		}
	}
	return m, nil
}

func manifestPath(dir string) string { return filepath.Join(dir, "manifest.json") }

// HashContents returns the hex-encoded SHA-256 digest of contents, the key
// Lookup/Store compare against the manifest.
func HashContents(contents string) string {
	sum := sha256.Sum256([]byte(contents))
	return hex.EncodeToString(sum[:])
}

// Lookup returns the cached artifact for file if its manifest entry's hash
// matches currentHash. Any read, decompress, or decode failure is treated
// as a miss: the cache is always safe to fall through and recompute.
func (m *Manager) Lookup(file, currentHash string) (*Artifact, bool) {
	m.mu.Lock()
	entry, ok := m.manifest.Files[file]
	m.mu.Unlock()
	if !ok || entry.Hash != currentHash {
		return nil, false
	}

	raw, err := os.ReadFile(filepath.Join(m.dir, "artifacts", entry.ArtifactFile))
	if err != nil {
		return nil, false
	}

	gz, err := gzip.NewReader(bytes.NewReader(raw))
	if err != nil {
		logCorruption(file, err)
		return nil, false
	}
	defer gz.Close()

	var artifact Artifact
	if err := gob.NewDecoder(gz).Decode(&artifact); err != nil {
		logCorruption(file, err)
		return nil, false
	}
	return &artifact, true
}

func logCorruption(file string, cause error) {
	slog.Debug("cache artifact corrupted, recomputing", "code", guarderr.CacheCorrupted, "file", file, "error", cause)
}

// Store gzip-compresses and gob-encodes artifact, writes it under a
// uuid-named artifact file, and records the mapping in the in-memory
// manifest. Call Flush to persist the manifest itself.
func (m *Manager) Store(file, hash string, artifact *Artifact) error {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	if err := gob.NewEncoder(gz).Encode(artifact); err != nil {
		return guarderr.Wrap(guarderr.Internal, "failed to encode cache artifact", err)
	}
	if err := gz.Close(); err != nil {
		return guarderr.Wrap(guarderr.Internal, "failed to flush cache artifact compressor", err)
	}

	artifactName := uuid.NewString() + ".bin"
	artifactPath := filepath.Join(m.dir, "artifacts", artifactName)
	tmpPath := artifactPath + ".tmp"
	if err := os.WriteFile(tmpPath, buf.Bytes(), 0o644); err != nil {
		return guarderr.Wrap(guarderr.Io, "failed to write cache artifact", err)
	}
	if err := os.Rename(tmpPath, artifactPath); err != nil {
		return guarderr.Wrap(guarderr.Io, "failed to finalize cache artifact", err)
	}

	m.mu.Lock()
	m.manifest.Files[file] = manifestEntry{Hash: hash, ArtifactFile: artifactName}
	m.mu.Unlock()
	return nil
}

// Flush writes the manifest to disk.
func (m *Manager) Flush() error {
	m.mu.Lock()
	data, err := json.MarshalIndent(m.manifest, "", "  ")
	m.mu.Unlock()
	if err != nil {
		return guarderr.Wrap(guarderr.Internal, "failed to marshal cache manifest", err)
	}
	if err := os.WriteFile(manifestPath(m.dir), data, 0o644); err != nil {
		return guarderr.Wrap(guarderr.Io, "failed to write cache manifest", err)
	}
	return nil
}

// Clear removes every cached artifact and resets the manifest.
func (m *Manager) Clear() error {
	artifactsDir := filepath.Join(m.dir, "artifacts")
	if err := os.RemoveAll(artifactsDir); err != nil {
		return guarderr.Wrap(guarderr.Io, "failed to clear cache artifacts", err)
	}
	if err := os.MkdirAll(artifactsDir, 0o755); err != nil {
		return guarderr.Wrap(guarderr.Io, "failed to recreate cache artifacts directory", err)
	}

	m.mu.Lock()
	m.manifest.Files = map[string]manifestEntry{}
	m.mu.Unlock()
	return m.Flush()
}

// MergeInto folds a cached artifact's contract model into c and its IR
// functions into contractIr, as if file had just been freshly extracted.
func MergeInto(artifact *Artifact, file string, c *contract.ContractInfo, contractIr *ir.ContractIr) {
	c.SourceFiles = append(c.SourceFiles, file)
	c.EntryPoints = append(c.EntryPoints, artifact.EntryPoints...)
	c.MessageEnums = append(c.MessageEnums, artifact.MessageEnums...)
	c.StateItems = append(c.StateItems, artifact.StateItems...)
	for _, fn := range artifact.Functions {
		c.Functions = append(c.Functions, contract.FunctionInfo{
			Name:       fn.Name,
			Params:     fn.Params,
			ReturnType: fn.ReturnType,
			Span:       fn.Span,
			BodyText:   fn.BodyText,
		})
	}
	contractIr.Functions = append(contractIr.Functions, artifact.IrFunctions...)
}
