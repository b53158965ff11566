package forensics

import (
	"path/filepath"
	"strings"
)

// extension table is fixed; anything else is unsupported and excluded from
// all downstream processing.
var extensionCategories = map[string]MediaCategory{
	"png":  CategoryImages,
	"jpg":  CategoryImages,
	"jpeg": CategoryImages,
	"gif":  CategoryImages,
	"mp4":  CategoryVideo,
	"mov":  CategoryVideo,
	"avi":  CategoryVideo,
	"mkv":  CategoryVideo,
	"mp3":  CategoryAudio,
	"wav":  CategoryAudio,
	"m4a":  CategoryAudio,
	"txt":  CategoryDocuments,
	"pdf":  CategoryDocuments,
	"docx": CategoryDocuments,
}

// Classify maps a file path to its media category. Pure function of the
// extension, case-insensitive.
func Classify(path string) MediaCategory {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	if ext == "" {
		return CategoryUnsupported
	}
	if cat, ok := extensionCategories[ext]; ok {
		return cat
	}
	return CategoryUnsupported
}

// Bucket classifies a batch of paths into per-category SourceFile lists,
// preserving input order within each category. Unsupported files are
// silently dropped; they appear nowhere in the final bundle.
func Bucket(paths []string) map[MediaCategory][]SourceFile {
	buckets := map[MediaCategory][]SourceFile{
		CategoryImages:    nil,
		CategoryAudio:     nil,
		CategoryVideo:     nil,
		CategoryDocuments: nil,
	}
	for _, p := range paths {
		cat := Classify(p)
		if !cat.Supported() {
			continue
		}
		buckets[cat] = append(buckets[cat], SourceFile{
			Path:        p,
			DisplayName: filepath.Base(p),
			Category:    cat,
		})
	}
	return buckets
}

// ClassifiedCount returns the number of files across all supported buckets.
func ClassifiedCount(buckets map[MediaCategory][]SourceFile) int {
	n := 0
	for cat, files := range buckets {
		if cat.Supported() {
			n += len(files)
		}
	}
	return n
}
