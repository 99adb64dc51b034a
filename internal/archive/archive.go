// Package archive locates, validates and extracts the daily vendor archive.
package archive

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/windgate/tecres/internal/common"
	"github.com/windgate/tecres/internal/model"
)

// zipMagic is the local-file-header signature every usable archive starts
// with. Empty archives (PK\x05\x06) carry no spreadsheets and are treated
// as invalid candidates.
var zipMagic = []byte{'P', 'K', 0x03, 0x04}

// spreadsheetExtensions are the member suffixes enumerated after extraction.
var spreadsheetExtensions = []string{".xlsx", ".xls"}

// Find selects the archive to process from a date folder. Candidates are
// ordered newest modification time first; each is checked for a structural
// zip signature before being accepted. Invalid candidates are logged and
// skipped. Returns ErrNoValidArchive when no candidate survives.
func Find(folder string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(folder, "*.zip"))
	if err != nil {
		return "", fmt.Errorf("failed to list archives in %s: %w", folder, err)
	}
	if len(matches) == 0 {
		return "", fmt.Errorf("%w: no zip files in %s", common.ErrNoValidArchive, folder)
	}

	type candidate struct {
		path    string
		modTime int64
	}
	candidates := make([]candidate, 0, len(matches))
	for _, path := range matches {
		info, statErr := os.Stat(path)
		if statErr != nil {
			slog.Warn("Skipping unreadable archive candidate", "path", path, "error", statErr)
			continue
		}
		candidates = append(candidates, candidate{path: path, modTime: info.ModTime().UnixNano()})
	}
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].modTime > candidates[j].modTime
	})

	for _, cand := range candidates {
		ok, sigErr := hasZipSignature(cand.path)
		if sigErr != nil {
			slog.Warn("Skipping unreadable archive candidate", "path", cand.path, "error", sigErr)
			continue
		}
		if !ok {
			slog.Warn("Skipping structurally invalid archive", "file", filepath.Base(cand.path))
			continue
		}
		return cand.path, nil
	}

	return "", fmt.Errorf("%w: %s", common.ErrNoValidArchive, folder)
}

func hasZipSignature(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	header := make([]byte, len(zipMagic))
	if _, err := io.ReadFull(f, header); err != nil {
		return false, nil
	}
	return bytes.Equal(header, zipMagic), nil
}

// Extract unpacks the archive into destDir and enumerates the spreadsheet
// members found underneath it. destDir is removed and recreated first, so
// every extraction starts from a clean directory and a re-run for the same
// date leaves no residue from earlier archives.
func Extract(archivePath, destDir string) ([]model.CandidateFile, error) {
	if err := os.RemoveAll(destDir); err != nil {
		return nil, fmt.Errorf("failed to clean extraction dir %s: %w", destDir, err)
	}
	if err := os.MkdirAll(destDir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create extraction dir %s: %w", destDir, err)
	}

	reader, err := zip.OpenReader(archivePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive %s: %w", archivePath, err)
	}
	defer reader.Close()

	for _, member := range reader.File {
		if err := extractMember(member, destDir); err != nil {
			return nil, err
		}
	}

	files, err := enumerateSpreadsheets(destDir)
	if err != nil {
		return nil, err
	}

	slog.Info("Extracted archive",
		"archive", filepath.Base(archivePath),
		"dest", destDir,
		"spreadsheets", len(files))
	return files, nil
}

func extractMember(member *zip.File, destDir string) error {
	target, err := securePath(destDir, member.Name)
	if err != nil {
		return err
	}

	if member.FileInfo().IsDir() {
		return os.MkdirAll(target, 0o750)
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o750); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", member.Name, err)
	}

	src, err := member.Open()
	if err != nil {
		return fmt.Errorf("failed to open archive member %s: %w", member.Name, err)
	}
	defer src.Close()

	dst, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o640)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", target, err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil { //nolint:gosec // archives come from a trusted vendor feed
		return fmt.Errorf("failed to extract %s: %w", member.Name, err)
	}
	return nil
}

// securePath rejects member names that would escape the extraction root.
func securePath(destDir, name string) (string, error) {
	target := filepath.Join(destDir, filepath.Clean(name))
	if !strings.HasPrefix(target, filepath.Clean(destDir)+string(os.PathSeparator)) {
		return "", fmt.Errorf("archive member escapes extraction dir: %s", name)
	}
	return target, nil
}

// enumerateSpreadsheets walks the extraction tree and returns candidate
// files in lexical walk order, which fixes the per-run processing order.
func enumerateSpreadsheets(destDir string) ([]model.CandidateFile, error) {
	var files []model.CandidateFile
	err := filepath.WalkDir(destDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		for _, want := range spreadsheetExtensions {
			if ext == want {
				base := filepath.Base(path)
				files = append(files, model.CandidateFile{
					Path: path,
					Stem: strings.TrimSuffix(base, filepath.Ext(base)),
				})
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate extracted files: %w", err)
	}
	return files, nil
}
