package core

import (
	"archive/tar"
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/klauspost/compress/gzip"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v2"
)

const exportManifestName = "manifest.yaml"

// ExportEntry reports the outcome for one member of a bulk export
type ExportEntry struct {
	Key         string `yaml:"key"`
	Name        string `yaml:"name"`
	Fingerprint string `yaml:"fingerprint,omitempty"`
	Size        uint64 `yaml:"size,omitempty"`
	ArchivePath string `yaml:"archivePath,omitempty"`
	Error       string `yaml:"error,omitempty"`
}

// Ok reports whether this member made it into the archive
func (x ExportEntry) Ok() bool {
	return x.Error == ""
}

// ExportManifest describes a bulk export archive, member by member.
// It is written as the last archive entry so that a partial failure is
// visible to whoever unpacks the archive.
type ExportManifest struct {
	CreatedAt time.Time     `yaml:"createdAt"`
	CreatedBy string        `yaml:"createdBy,omitempty"`
	Entries   []ExportEntry `yaml:"entries"`
}

// exportItem is the staging state for one archive member
type exportItem struct {
	report    ExportEntry
	spillPath string
}

// BulkExport streams the given file entries into a gzip compressed tar
// archive written to w. Blob fetches run concurrently with a bounded
// worker count; archive members are then written sequentially, in the
// order the keys were given.
//
// A failure on one member never aborts the export: it is recorded in
// the manifest and the member is skipped. The returned manifest mirrors
// what was written. Only a context cancellation or a write failure on
// w abandons the archive as a whole.
func (e *Engine) BulkExport(ctx context.Context, keys []string, w io.Writer) (ExportManifest, error) {
	start := time.Now()
	items := make([]exportItem, len(keys))

	grp, gctx := errgroup.WithContext(ctx)
	grp.SetLimit(e.exportParallel)
	for i, key := range keys {
		i, key := i, key
		grp.Go(func() error {
			items[i] = e.stageExportItem(gctx, key)
			if gctx.Err() != nil {
				return gctx.Err()
			}
			return nil
		})
	}
	err := grp.Wait()
	defer func() {
		for _, item := range items {
			if item.spillPath != "" {
				_ = os.Remove(item.spillPath)
			}
		}
	}()
	if err != nil {
		return ExportManifest{}, err
	}

	manifest := ExportManifest{
		CreatedAt: time.Now().UTC(),
		CreatedBy: e.contributor,
	}
	gz := gzip.NewWriter(w)
	tw := tar.NewWriter(gz)
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		if item.report.Ok() {
			item.report.ArchivePath = uniqueArchivePath(seen, item.report)
			if err := e.writeArchiveMember(tw, item); err != nil {
				return ExportManifest{}, err
			}
		}
		manifest.Entries = append(manifest.Entries, item.report)
	}
	if err := e.writeManifest(tw, manifest); err != nil {
		return ExportManifest{}, err
	}
	if err := tw.Close(); err != nil {
		return ExportManifest{}, fmt.Errorf("closing archive: %w", err)
	}
	if err := gz.Close(); err != nil {
		return ExportManifest{}, fmt.Errorf("closing compressor: %w", err)
	}

	failed := 0
	for _, entry := range manifest.Entries {
		if !entry.Ok() {
			failed++
		}
	}
	e.l.Info("bulk export finished",
		zap.Int("requested", len(keys)),
		zap.Int("failed", failed),
		zap.Duration("duration", time.Since(start)))
	return manifest, nil
}

// ExportAll exports every file entry in the catalog
func (e *Engine) ExportAll(ctx context.Context, w io.Writer) (ExportManifest, error) {
	files, err := e.ListFiles(ctx)
	if err != nil {
		return ExportManifest{}, err
	}
	keys := make([]string, 0, len(files))
	for _, f := range files {
		keys = append(keys, f.Key)
	}
	return e.BulkExport(ctx, keys, w)
}

// stageExportItem resolves one key and spills its blob to a temporary
// file, so the archive writer later knows the exact member size and
// can write members one at a time. Failures land in the report, not in
// an error: partial success is part of the bulk export contract.
func (e *Engine) stageExportItem(ctx context.Context, key string) exportItem {
	item := exportItem{report: ExportEntry{Key: key}}

	rdr, entry, rec, err := e.OpenStream(ctx, key)
	if err != nil {
		item.report.Error = err.Error()
		return item
	}
	defer rdr.Close()
	item.report.Name = entry.Name
	item.report.Fingerprint = rec.Fingerprint
	item.report.Size = rec.Size

	spill, err := os.CreateTemp("", "depot-export-")
	if err != nil {
		item.report.Error = fmt.Sprintf("staging blob: %v", err)
		return item
	}
	_, cpErr := io.Copy(spill, rdr)
	clErr := spill.Close()
	if cpErr != nil || clErr != nil {
		_ = os.Remove(spill.Name())
		if cpErr == nil {
			cpErr = clErr
		}
		item.report.Error = fmt.Sprintf("staging blob: %v", cpErr)
		return item
	}
	item.spillPath = spill.Name()
	return item
}

func (e *Engine) writeArchiveMember(tw *tar.Writer, item exportItem) error {
	f, err := os.Open(item.spillPath)
	if err != nil {
		return fmt.Errorf("reopening staged blob for %q: %w", item.report.Key, err)
	}
	defer f.Close()

	if err := tw.WriteHeader(&tar.Header{
		Name:    item.report.ArchivePath,
		Mode:    0o644,
		Size:    int64(item.report.Size),
		ModTime: time.Now().UTC(),
	}); err != nil {
		return fmt.Errorf("writing archive header for %q: %w", item.report.Key, err)
	}
	if _, err := io.Copy(tw, f); err != nil {
		return fmt.Errorf("writing archive member for %q: %w", item.report.Key, err)
	}
	return nil
}

func (e *Engine) writeManifest(tw *tar.Writer, manifest ExportManifest) error {
	raw, err := yaml.Marshal(manifest)
	if err != nil {
		return fmt.Errorf("serializing manifest: %w", err)
	}
	if err := tw.WriteHeader(&tar.Header{
		Name:    exportManifestName,
		Mode:    0o644,
		Size:    int64(len(raw)),
		ModTime: manifest.CreatedAt,
	}); err != nil {
		return fmt.Errorf("writing manifest header: %w", err)
	}
	if _, err := tw.Write(raw); err != nil {
		return fmt.Errorf("writing manifest: %w", err)
	}
	return nil
}

// uniqueArchivePath disambiguates member names: distinct entries may
// share a display name inside one export set
func uniqueArchivePath(seen map[string]struct{}, report ExportEntry) string {
	name := report.Name
	if _, dup := seen[name]; dup {
		name = report.Key + "-" + name
	}
	seen[name] = struct{}{}
	return name
}
