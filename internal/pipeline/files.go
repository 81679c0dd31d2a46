// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// invalidFilenameChars are characters not accepted in filenames on common
// filesystems.
const invalidFilenameChars = `<>:"/\|?*`

// SanitizeFilename replaces filesystem-hostile characters with underscores
// and trims surrounding whitespace.
func SanitizeFilename(name string) string {
	cleaned := strings.Map(func(r rune) rune {
		if strings.ContainsRune(invalidFilenameChars, r) {
			return '_'
		}
		return r
	}, name)
	return strings.TrimSpace(cleaned)
}

// backupAndRename copies src into backupDir under its original name, then
// renames it to "<clientName>.pdf" in its own directory. Name collisions
// get a numeric suffix: "Name_1.pdf", "Name_2.pdf", and so on. The backup
// happens first so a failed rename never loses the original.
func backupAndRename(src, backupDir, clientName string) (backupPath, newPath string, err error) {
	if err := os.MkdirAll(backupDir, 0o755); err != nil {
		return "", "", fmt.Errorf("creating backup directory: %w", err)
	}

	backupPath = filepath.Join(backupDir, filepath.Base(src))
	if err := copyFile(src, backupPath); err != nil {
		return "", "", fmt.Errorf("backing up %s: %w", src, err)
	}

	base := SanitizeFilename(clientName)
	dir := filepath.Dir(src)
	newPath = filepath.Join(dir, base+".pdf")
	for counter := 1; newPath != src; counter++ {
		if _, err := os.Stat(newPath); os.IsNotExist(err) {
			break
		}
		newPath = filepath.Join(dir, fmt.Sprintf("%s_%d.pdf", base, counter))
	}

	if err := os.Rename(src, newPath); err != nil {
		return "", "", fmt.Errorf("renaming %s: %w", src, err)
	}
	return backupPath, newPath, nil
}

// copyFile copies src to dst, preserving the source's permission bits.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return err
	}
	return out.Close()
}
