package cvflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/mitchellh/mapstructure"
)

const (
	apiCVPath = "/cv"

	DefaultTemplateID = "olive"
	DefaultTitle      = "Untitled CV"
)

// Content is the structured CV body. The save pipeline never looks inside
// it; it is persisted atomically as a whole.
type Content map[string]any

type CVSummary struct {
	ID         string   `json:"id"`
	Title      string   `json:"title"`
	TemplateID string   `json:"template_id"`
	ATSScore   *float64 `json:"ats_score"`
	Status     string   `json:"status"`
	CreatedAt  string   `json:"created_at"`
	UpdatedAt  string   `json:"updated_at"`
}

type CV struct {
	CVSummary
	Content Content `json:"content"`
}

// CVUpdate is a partial update; nil fields are left untouched by the backend.
type CVUpdate struct {
	Title      *string `json:"title,omitempty"`
	TemplateID *string `json:"template_id,omitempty"`
	Content    Content `json:"content,omitempty"`
}

// ContactInfo is a typed view over the contact_info content section.
type ContactInfo struct {
	Name     string `mapstructure:"name"`
	Email    string `mapstructure:"email"`
	Phone    string `mapstructure:"phone"`
	Location string `mapstructure:"location"`
	LinkedIn string `mapstructure:"linkedin"`
	Website  string `mapstructure:"website"`
}

// Experience is a typed view over one experience content entry.
type Experience struct {
	JobTitle  string   `mapstructure:"job_title"`
	Company   string   `mapstructure:"company"`
	Location  string   `mapstructure:"location"`
	StartDate string   `mapstructure:"start_date"`
	EndDate   string   `mapstructure:"end_date"`
	Current   bool     `mapstructure:"current"`
	Bullets   []string `mapstructure:"bullets"`
}

func (c *Client) ListCVs(ctx context.Context) ([]*CVSummary, error) {
	var cvs []*CVSummary
	if err := c.getJSON(ctx, fmt.Sprintf("%s%s/", c.APIURL, apiCVPath), &cvs); err != nil {
		return nil, err
	}

	return cvs, nil
}

func (c *Client) GetCV(ctx context.Context, id string) (*CV, error) {
	var cv CV
	if err := c.getJSON(ctx, fmt.Sprintf("%s%s/%s", c.APIURL, apiCVPath, id), &cv); err != nil {
		return nil, err
	}

	return &cv, nil
}

func (c *Client) CreateCV(ctx context.Context, title, templateID string) (*CV, error) {
	if strings.TrimSpace(title) == "" {
		title = DefaultTitle
	}
	if strings.TrimSpace(templateID) == "" {
		templateID = DefaultTemplateID
	}

	payload := map[string]string{
		"title":       title,
		"template_id": templateID,
	}

	var cv CV
	if err := c.postJSON(ctx, fmt.Sprintf("%s%s/", c.APIURL, apiCVPath), payload, &cv); err != nil {
		return nil, err
	}

	return &cv, nil
}

func (c *Client) UpdateCV(ctx context.Context, id string, update *CVUpdate) (*CV, error) {
	var cv CV
	if err := c.putJSON(ctx, fmt.Sprintf("%s%s/%s", c.APIURL, apiCVPath, id), update, &cv); err != nil {
		return nil, err
	}

	return &cv, nil
}

// AutosaveContent overwrites the stored content wholesale. The endpoint is
// idempotent: calling it again with the same snapshot is a no-op server-side.
func (c *Client) AutosaveContent(ctx context.Context, id string, content Content) error {
	payload := map[string]any{"content": content}

	return c.postJSON(ctx, fmt.Sprintf("%s%s/%s/auto-save", c.APIURL, apiCVPath, id), payload, nil)
}

func (c *Client) DuplicateCV(ctx context.Context, id string) (*CV, error) {
	var cv CV
	if err := c.postJSON(ctx, fmt.Sprintf("%s%s/%s/duplicate", c.APIURL, apiCVPath, id), nil, &cv); err != nil {
		return nil, err
	}

	return &cv, nil
}

func (c *Client) DeleteCV(ctx context.Context, id string) error {
	return c.deleteJSON(ctx, fmt.Sprintf("%s%s/%s", c.APIURL, apiCVPath, id))
}

// DownloadPreview fetches the rendered PDF for the CV.
func (c *Client) DownloadPreview(ctx context.Context, id string) ([]byte, error) {
	return c.download(ctx, fmt.Sprintf("%s%s/%s/preview", c.APIURL, apiCVPath, id))
}

// ImproveText asks the backend's AI rewriter for a better version of the
// provided fragment. The model provider stays behind the backend.
func (c *Client) ImproveText(ctx context.Context, text, hint, language string) (string, error) {
	if language == "" {
		language = "en"
	}

	payload := map[string]string{
		"text":     text,
		"context":  hint,
		"language": language,
	}

	var result struct {
		ImprovedText string `json:"improved_text"`
	}
	if err := c.postJSON(ctx, fmt.Sprintf("%s%s/ai/improve-text", c.APIURL, apiCVPath), payload, &result); err != nil {
		return "", err
	}

	return result.ImprovedText, nil
}

// GenerateSummary asks the backend to draft a professional summary for the
// CV, tuned to the target role.
func (c *Client) GenerateSummary(ctx context.Context, id, targetRole, language string) (string, error) {
	if language == "" {
		language = "en"
	}

	payload := map[string]string{
		"cv_id":       id,
		"target_role": targetRole,
		"language":    language,
	}

	var result struct {
		Summary string `json:"summary"`
	}
	if err := c.postJSON(ctx, fmt.Sprintf("%s%s/ai/generate-summary", c.APIURL, apiCVPath), payload, &result); err != nil {
		return "", err
	}

	return result.Summary, nil
}

// SuggestBullets asks the backend for achievement bullet points for an
// experience entry. Company and industry are optional hints.
func (c *Client) SuggestBullets(ctx context.Context, jobTitle, company, industry string) ([]string, error) {
	payload := map[string]string{
		"job_title": jobTitle,
		"company":   company,
		"industry":  industry,
	}

	var result struct {
		Bullets []string `json:"bullets"`
	}
	if err := c.postJSON(ctx, fmt.Sprintf("%s%s/ai/suggest-bullets", c.APIURL, apiCVPath), payload, &result); err != nil {
		return nil, err
	}

	return result.Bullets, nil
}

// ContactInfo decodes the contact_info section, if present.
func (c Content) ContactInfo() (*ContactInfo, error) {
	raw, ok := c["contact_info"]
	if !ok {
		return &ContactInfo{}, nil
	}

	var info ContactInfo
	if err := mapstructure.Decode(raw, &info); err != nil {
		return nil, err
	}

	return &info, nil
}

// Experiences decodes the experience section, if present.
func (c Content) Experiences() ([]*Experience, error) {
	raw, ok := c["experience"]
	if !ok {
		return nil, nil
	}

	var entries []*Experience
	if err := mapstructure.Decode(raw, &entries); err != nil {
		return nil, err
	}

	return entries, nil
}

// Summary returns the summary section as plain text.
func (c Content) Summary() string {
	s, _ := c["summary"].(string)
	return s
}

// SetSummary replaces the summary section.
func (c Content) SetSummary(s string) {
	c["summary"] = s
}

// Clone returns a shallow copy. Section values are shared; the save pipeline
// treats them as immutable snapshots.
func (c Content) Clone() Content {
	if c == nil {
		return nil
	}

	clone := make(Content, len(c))
	for k, v := range c {
		clone[k] = v
	}

	return clone
}
