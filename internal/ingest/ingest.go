package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/op/go-logging"

	"rpitems/internal/catalog"
	"rpitems/internal/config"
	"rpitems/internal/item"
	"rpitems/internal/logger"
	"rpitems/internal/parser"
	"rpitems/internal/store"
)

var log = logging.MustGetLogger(logger.Module)

// Run imports markdown item files into the working collection. Files whose
// hash matches the last import are skipped unless options.Full is set. The
// caller persists ws afterwards.
func Run(ctx context.Context, cfg *config.ProjectConfig, ws *catalog.Workspace, db Store, options Options) (*Result, error) {
	result := &Result{}

	records, err := db.GetImportRecords(ctx)
	if err != nil {
		return nil, fmt.Errorf("get import records: %w", err)
	}

	files, err := walkMarkdownFiles(cfg.Import.Paths, cfg.Import.Exclude)
	if err != nil {
		return nil, fmt.Errorf("walking import paths: %w", err)
	}

	for _, path := range files {
		hash, err := computeHash(path)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("hashing %s: %w", path, err))
			continue
		}
		previous, seen := records[path]
		if !options.Full && seen && previous.Hash == hash {
			result.FilesSkipped++
			continue
		}

		doc, err := parser.ParseFile(path)
		if err != nil {
			if errors.Is(err, parser.ErrNoFrontmatter) {
				result.FilesSkipped++
				continue
			}
			result.Errors = append(result.Errors, fmt.Errorf("parsing %s: %w", path, err))
			continue
		}

		it := doc.Item(catalog.ActionID)
		if it.GUID == "" && seen {
			it.GUID = previous.GUID
		}

		guid, added, err := upsert(ws, it)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("importing %s: %w", path, err))
			continue
		}
		if added {
			result.ItemsAdded++
		} else {
			result.ItemsUpdated++
		}

		if err := db.RecordImport(ctx, store.ImportRecord{Path: path, Hash: hash, GUID: guid}); err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("recording import of %s: %w", path, err))
		}
		log.Debugf("action: import | result: success | file: %s | guid: %s", path, guid)
	}

	removed, err := db.RemoveStaleImports(ctx, files)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Errorf("removing stale imports: %w", err))
	} else {
		result.RecordsRemoved = int(removed)
	}

	return result, nil
}

// upsert matches an existing item by GUID, or by name when the file carries
// no GUID, and replaces its fields. Otherwise the item is added.
func upsert(ws *catalog.Workspace, it item.Item) (string, bool, error) {
	id, existing, found := ws.Working.FindGUID(it.GUID)
	if !found && it.GUID == "" {
		id, existing, found = findByName(ws.Working, it.Name)
	}
	if !found {
		id, err := ws.AddItem(it)
		if err != nil {
			return "", false, err
		}
		added, _ := ws.Item(id)
		return added.GUID, true, nil
	}

	err := ws.UpdateItem(id, func(target *item.Item) {
		*target = it
	})
	if err != nil {
		return "", false, err
	}
	return existing.GUID, false, nil
}

func findByName(c *item.Collection, name string) (int, item.Item, bool) {
	for _, id := range c.IDs() {
		if strings.EqualFold(c.Items[id].Name, name) {
			return id, c.Items[id], true
		}
	}
	return 0, item.Item{}, false
}

func walkMarkdownFiles(roots []string, excludes []string) ([]string, error) {
	excluded := make([]string, 0, len(excludes))
	for _, path := range excludes {
		if path == "" {
			continue
		}
		excluded = append(excluded, filepath.Clean(path))
	}

	var files []string
	for _, root := range roots {
		if root == "" {
			continue
		}
		root = filepath.Clean(root)
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() && isExcluded(path, excluded) {
				return filepath.SkipDir
			}
			if d.IsDir() {
				return nil
			}
			if !strings.HasSuffix(strings.ToLower(d.Name()), ".md") {
				return nil
			}
			if isExcluded(path, excluded) {
				return nil
			}
			files = append(files, path)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return files, nil
}

func isExcluded(path string, excludes []string) bool {
	clean := filepath.Clean(path)
	for _, exclude := range excludes {
		if exclude == clean || strings.HasPrefix(clean, exclude+string(os.PathSeparator)) {
			return true
		}
	}
	return false
}

func computeHash(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
