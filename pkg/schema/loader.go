package schema

import (
	"io"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"

	"github.com/arthur-debert/pgmirror/pkg/errors"
	"github.com/arthur-debert/pgmirror/pkg/logging"
)

// EnvConfigPath overrides default config resolution when --config is absent.
const EnvConfigPath = "PGMIRROR_CONFIG"

// defaultNames are probed, in order, in the working directory and the XDG
// config directory when no explicit path is given.
var defaultNames = []string{"schema.yaml", "schema.yml", "schema.json"}

// Resolve returns the concrete config path to load. An explicit path must
// exist. Without one, resolution falls back to $PGMIRROR_CONFIG, then the
// default file names in the working directory, then the XDG config
// directory.
func Resolve(path string) (string, error) {
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return "", errors.Wrapf(err, errors.ErrConfigNotFound, "config %q not found", path)
		}
		return path, nil
	}

	if env := os.Getenv(EnvConfigPath); env != "" {
		if _, err := os.Stat(env); err != nil {
			return "", errors.Wrapf(err, errors.ErrConfigNotFound, "config %q from %s not found", env, EnvConfigPath)
		}
		return env, nil
	}

	probed := append([]string{}, defaultNames...)
	for _, name := range defaultNames {
		probed = append(probed, filepath.Join(xdg.ConfigHome, "pgmirror", name))
	}
	for _, candidate := range probed {
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}

	return "", errors.Newf(errors.ErrConfigNotFound,
		"no schema config found; pass --config or set %s", EnvConfigPath)
}

// DocumentReader yields the documents of one configuration source, lazily
// and in order. It is not restartable.
type DocumentReader struct {
	file    *os.File
	decoder *yaml.Decoder
	pending []*yaml.Node
	count   int
}

// Open opens the configuration source at path. The source is YAML (JSON is
// accepted as a YAML subset): either a stream of documents or a single
// top-level sequence of documents.
func Open(path string) (*DocumentReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrConfigLoad, "cannot read config %q", path)
	}
	return &DocumentReader{
		file:    f,
		decoder: yaml.NewDecoder(f),
	}, nil
}

// Read returns the next document. It returns io.EOF when the source is
// exhausted; any other error means the source is unreadable or malformed
// from this point on.
func (r *DocumentReader) Read() (Document, error) {
	logger := logging.GetLogger("schema")

	node, err := r.next()
	if err == io.EOF {
		return Document{}, io.EOF
	}
	if err != nil {
		return Document{}, errors.Wrapf(err, errors.ErrSchemaParse,
			"malformed config at document %d", r.count+1)
	}

	var doc Document
	if err := node.Decode(&doc); err != nil {
		return Document{}, errors.Wrapf(err, errors.ErrSchemaParse,
			"malformed document %d", r.count+1)
	}
	r.count++

	logger.Debug().
		Int("document", r.count).
		Str("database", doc.DatabaseName()).
		Str("index", doc.IndexName()).
		Msg("Loaded document")

	return doc, nil
}

// next yields the next raw document node, flattening a top-level sequence
// into its elements.
func (r *DocumentReader) next() (*yaml.Node, error) {
	if len(r.pending) > 0 {
		node := r.pending[0]
		r.pending = r.pending[1:]
		return node, nil
	}

	var node yaml.Node
	if err := r.decoder.Decode(&node); err != nil {
		return nil, err
	}

	root := &node
	if root.Kind == yaml.DocumentNode && len(root.Content) > 0 {
		root = root.Content[0]
	}
	if root.Kind == yaml.SequenceNode {
		if len(root.Content) == 0 {
			return r.next()
		}
		r.pending = root.Content[1:]
		return root.Content[0], nil
	}
	return root, nil
}

// Close releases the underlying file.
func (r *DocumentReader) Close() error {
	return r.file.Close()
}
