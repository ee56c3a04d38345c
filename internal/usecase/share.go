package usecase

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/naka-gawa/stargazers/internal/domain"
)

const shareParam = "repos"

// ShareURL encodes the loaded repositories into a link that reloads them.
func ShareURL(base string, records []domain.RepositoryRecord) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("failed to parse share base URL: %w", err)
	}
	names := make([]string, 0, len(records))
	for _, r := range records {
		names = append(names, r.ID.String())
	}
	q := u.Query()
	q.Set(shareParam, strings.Join(names, ","))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// ParseShareURL extracts repository identifiers from a share link. A bare
// "owner/name,owner/name" list is accepted as well. Entries are returned as
// written; validation happens when they are loaded.
func ParseShareURL(raw string) ([]domain.RepositoryIdentifier, error) {
	list := raw
	if strings.Contains(raw, "?") || strings.Contains(raw, "://") {
		u, err := url.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("failed to parse share URL: %w", err)
		}
		list = u.Query().Get(shareParam)
	}

	var ids []domain.RepositoryIdentifier
	for _, part := range strings.Split(list, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		ids = append(ids, domain.ParseIdentifier(part))
	}
	return ids, nil
}
