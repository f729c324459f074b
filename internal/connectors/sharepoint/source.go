package sharepoint

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/harborline/docsift/internal/core/domain"
	"github.com/harborline/docsift/internal/core/ports/driven"
	"github.com/harborline/docsift/internal/logger"
)

// Ensure Source implements the interface.
var _ driven.ContentSource = (*Source)(nil)

// Source fetches documents from a SharePoint drive. The drive is
// addressed directly by ID or resolved once from the site name.
// Item identifiers are the Graph item IDs, which survive renames.
type Source struct {
	client  *Client
	cfg     domain.SharePointSettings
	driveID string
}

// New creates a SharePoint source.
func New(cfg domain.SharePointSettings, opts ...ClientOption) *Source {
	return &Source{
		client:  NewClient(cfg, opts...),
		cfg:     cfg,
		driveID: cfg.DriveID,
	}
}

// Type returns the source type identifier.
func (s *Source) Type() string {
	return "sharepoint"
}

// Validate checks credentials and resolves the target drive.
func (s *Source) Validate(ctx context.Context) error {
	_, err := s.resolveDrive(ctx)
	return err
}

// Close releases resources.
func (s *Source) Close() error {
	return nil
}

// driveItem is the subset of the Graph drive item resource we use.
type driveItem struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"lastModifiedDateTime"`
	File         *struct {
		MimeType string `json:"mimeType"`
	} `json:"file"`
	Folder *struct {
		ChildCount int `json:"childCount"`
	} `json:"folder"`
	ParentReference struct {
		Path string `json:"path"`
	} `json:"parentReference"`
}

// listResponse is one page of a children listing.
type listResponse struct {
	Value    []driveItem `json:"value"`
	NextLink string      `json:"@odata.nextLink"`
}

// siteResponse is the site resource; only the ID matters here.
type siteResponse struct {
	ID string `json:"id"`
}

// driveResponse is the default drive of a site.
type driveResponse struct {
	ID string `json:"id"`
}

// Fetch lists the drive recursively and downloads every matching
// file. A listing failure aborts the fetch; a single file download
// failure skips that file with a warning.
func (s *Source) Fetch(ctx context.Context, opts driven.FetchOptions) ([]domain.SourceItem, error) {
	driveID, err := s.resolveDrive(ctx)
	if err != nil {
		return nil, err
	}

	formats := formatSet(opts.Formats)

	var items []domain.SourceItem
	var walk func(folderPath string) error
	walk = func(folderPath string) error {
		children, err := s.listChildren(ctx, driveID, folderPath)
		if err != nil {
			return err
		}

		for _, child := range children {
			if opts.MaxItems > 0 && len(items) >= opts.MaxItems {
				return nil
			}
			if err := ctx.Err(); err != nil {
				return err
			}

			childPath := path.Join(folderPath, child.Name)
			if child.Folder != nil {
				if err := walk(childPath); err != nil {
					return err
				}
				continue
			}
			if child.File == nil {
				continue
			}

			format := strings.ToLower(strings.TrimPrefix(path.Ext(child.Name), "."))
			if len(formats) > 0 && !formats[format] {
				continue
			}
			if !opts.Since.IsZero() && !child.LastModified.After(opts.Since) {
				continue
			}

			content, err := s.download(ctx, driveID, child.ID)
			if err != nil {
				logger.Warn("skipping %s: %v", childPath, err)
				continue
			}

			items = append(items, domain.SourceItem{
				ID:       child.ID,
				Name:     child.Name,
				Path:     childPath,
				Format:   format,
				Content:  content,
				Modified: child.LastModified.UTC(),
				Attributes: map[string]string{
					"drive_id": driveID,
				},
			})
		}
		return nil
	}

	if err := walk(cleanHint(opts.PathHint)); err != nil {
		return nil, err
	}
	return items, nil
}

// resolveDrive returns the configured drive ID, looking it up from
// the site name on first use when not set explicitly.
func (s *Source) resolveDrive(ctx context.Context) (string, error) {
	if s.driveID != "" {
		return s.driveID, nil
	}

	body, err := s.client.get(ctx, fmt.Sprintf("/sites/root:/sites/%s", url.PathEscape(s.cfg.SiteName)))
	if err != nil {
		return "", err
	}
	var site siteResponse
	if err := json.Unmarshal(body, &site); err != nil {
		return "", fmt.Errorf("decode site: %w", err)
	}

	body, err = s.client.get(ctx, fmt.Sprintf("/sites/%s/drive", url.PathEscape(site.ID)))
	if err != nil {
		return "", err
	}
	var drive driveResponse
	if err := json.Unmarshal(body, &drive); err != nil {
		return "", fmt.Errorf("decode drive: %w", err)
	}

	s.driveID = drive.ID
	logger.Debug("resolved site %s to drive %s", s.cfg.SiteName, drive.ID)
	return drive.ID, nil
}

// listChildren returns every child of a folder, following pagination.
func (s *Source) listChildren(ctx context.Context, driveID, folderPath string) ([]driveItem, error) {
	endpoint := fmt.Sprintf("/drives/%s/root/children", url.PathEscape(driveID))
	if folderPath != "" {
		endpoint = fmt.Sprintf("/drives/%s/root:/%s:/children", url.PathEscape(driveID), escapePath(folderPath))
	}

	var all []driveItem
	for endpoint != "" {
		body, err := s.client.get(ctx, endpoint)
		if err != nil {
			return nil, err
		}

		var page listResponse
		if err := json.Unmarshal(body, &page); err != nil {
			return nil, fmt.Errorf("decode listing: %w", err)
		}
		all = append(all, page.Value...)
		endpoint = page.NextLink
	}
	return all, nil
}

// download fetches the raw content of a file item.
func (s *Source) download(ctx context.Context, driveID, itemID string) ([]byte, error) {
	return s.client.get(ctx, fmt.Sprintf("/drives/%s/items/%s/content",
		url.PathEscape(driveID), url.PathEscape(itemID)))
}

// cleanHint trims slashes so path hints compose cleanly.
func cleanHint(hint string) string {
	return strings.Trim(strings.TrimSpace(hint), "/")
}

// escapePath escapes each segment of a drive path, keeping the
// separators.
func escapePath(p string) string {
	segments := strings.Split(p, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return strings.Join(segments, "/")
}

// formatSet normalises the format filter to a lookup set.
func formatSet(formats []string) map[string]bool {
	if len(formats) == 0 {
		return nil
	}
	set := make(map[string]bool, len(formats))
	for _, f := range formats {
		set[strings.ToLower(strings.TrimPrefix(strings.TrimSpace(f), "."))] = true
	}
	return set
}
