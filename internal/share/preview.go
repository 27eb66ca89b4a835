package share

import (
	"fmt"

	"github.com/ckiertz4887/website-roast/internal/core"
)

// Preview is the social metadata for a share page
type Preview struct {
	Title       string
	Description string
	ImageURL    string
	PageURL     string
}

// DefaultPreview describes the site itself, for pages without a record
func (s *Service) DefaultPreview() Preview {
	return Preview{
		Title:       "Website Roast",
		Description: "Paste a URL and hear its marketing copy get roasted.",
		ImageURL:    s.ImageURL("default"),
		PageURL:     s.baseURL + "/",
	}
}

// Preview builds the title, description and image for a record
func (s *Service) Preview(record *core.ShareRecord) Preview {
	if record == nil {
		return s.DefaultPreview()
	}
	grade := Grade(record.Results)
	return Preview{
		Title:       fmt.Sprintf("%s got roasted: grade %s", DisplayHost(record.URL), grade),
		Description: SanitizePreview(record.Roast),
		ImageURL:    s.ImageURL(record.ID),
		PageURL:     s.ShareURL(record.ID),
	}
}
