package database

import (
	"strings"

	"github.com/pressrun/pressrun/internal/textsim"
)

// DuplicateGroup is one cluster of stored duplicates. Keep is the earliest
// row of the cluster; Remove lists the later rows.
type DuplicateGroup struct {
	Keep   StoredArticle
	Remove []StoredArticle
}

// RemovableIDs flattens the groups into the IDs slated for deletion.
func RemovableIDs(groups []DuplicateGroup) []string {
	ids := []string{}
	for _, g := range groups {
		for _, a := range g.Remove {
			ids = append(ids, a.ID)
		}
	}
	return ids
}

type dedupeEntry struct {
	group  int
	title  string
	prefix string
}

// FindDuplicateGroups clusters stored articles that share a URL, a title, or
// a near-identical content prefix. Input order decides which row each cluster
// keeps, so callers pass rows oldest first. Only groups with at least one
// removable row are returned.
func FindDuplicateGroups(articles []StoredArticle, threshold float64) []DuplicateGroup {
	groups := []DuplicateGroup{}
	byURL := map[string]int{}
	byTitle := map[string]int{}
	kept := []dedupeEntry{}

	for _, article := range articles {
		title := normalizeTitle(article.Title)
		prefix := textsim.NormalizePrefix(article.Content)

		if idx, ok := matchExisting(article.URL, title, prefix, byURL, byTitle, kept, threshold); ok {
			groups[idx].Remove = append(groups[idx].Remove, article)
			continue
		}

		idx := len(groups)
		groups = append(groups, DuplicateGroup{Keep: article})
		byURL[article.URL] = idx
		if title != "" {
			byTitle[title] = idx
		}
		kept = append(kept, dedupeEntry{group: idx, title: title, prefix: prefix})
	}

	result := []DuplicateGroup{}
	for _, g := range groups {
		if len(g.Remove) > 0 {
			result = append(result, g)
		}
	}
	return result
}

func matchExisting(
	url, title, prefix string,
	byURL, byTitle map[string]int,
	kept []dedupeEntry,
	threshold float64,
) (int, bool) {
	if idx, ok := byURL[url]; ok {
		return idx, true
	}
	if title != "" {
		if idx, ok := byTitle[title]; ok {
			return idx, true
		}
	}
	if prefix != "" {
		for _, entry := range kept {
			if textsim.Similar(prefix, entry.prefix, threshold) {
				return entry.group, true
			}
		}
	}
	return 0, false
}

func normalizeTitle(title string) string {
	return strings.Join(strings.Fields(strings.ToLower(title)), " ")
}
