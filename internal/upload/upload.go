package upload

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"labelflow/internal/dataset"
	"labelflow/internal/export"
	"labelflow/internal/question"
)

// recordNamespace scopes the name-based record ids.
var recordNamespace = uuid.MustParse("6f1c2a6e-8d7b-4c1e-9a53-2b7d0f4e9c11")

type (
	workspace struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}

	workspaceList struct {
		Items []workspace `json:"items"`
	}

	created struct {
		ID string `json:"id"`
	}

	datasetCreate struct {
		Name        string `json:"name"`
		Guidelines  string `json:"guidelines,omitempty"`
		WorkspaceID string `json:"workspace_id"`
	}

	fieldCreate struct {
		Name     string        `json:"name"`
		Title    string        `json:"title"`
		Required bool          `json:"required"`
		Settings fieldSettings `json:"settings"`
	}

	fieldSettings struct {
		Type        string `json:"type"`
		UseMarkdown bool   `json:"use_markdown"`
	}

	questionCreate struct {
		Name        string           `json:"name"`
		Title       string           `json:"title"`
		Description string           `json:"description,omitempty"`
		Required    bool             `json:"required"`
		Settings    questionSettings `json:"settings"`
	}

	questionSettings struct {
		Type    string   `json:"type"`
		Options []option `json:"options"`
	}

	option struct {
		Value any    `json:"value"`
		Text  string `json:"text,omitempty"`
	}

	recordItem struct {
		ID          string            `json:"id"`
		ExternalID  string            `json:"external_id"`
		Fields      map[string]string `json:"fields"`
		Suggestions []suggestion      `json:"suggestions,omitempty"`
	}

	suggestion struct {
		QuestionID string `json:"question_id"`
		Value      any    `json:"value"`
	}

	recordsBulk struct {
		Items []recordItem `json:"items"`
	}
)

// Result summarizes a finished upload.
type Result struct {
	DatasetID string `json:"dataset_id"`
	Records   int    `json:"records"`
	Batches   int    `json:"batches"`
}

// Upload creates the dataset described by p and uploads its records.
// Record ids are derived from the dataset name and record index, so
// uploading the same payload again updates records instead of duplicating
// them.
func (c *Client) Upload(ctx context.Context, p *export.Payload) (Result, error) {
	if p == nil {
		return Result{}, &UploadError{Op: "prepare", Err: errors.New("nil payload")}
	}

	log := c.log.With("dataset", c.settings.Dataset)

	wsID, err := c.workspaceID(ctx)
	if err != nil {
		return Result{}, err
	}

	var ds created
	if err := c.call(ctx, "create dataset", http.MethodPost, "/api/v1/datasets", datasetCreate{
		Name:        c.settings.Dataset,
		Guidelines:  c.settings.Guidelines,
		WorkspaceID: wsID,
	}, &ds); err != nil {
		return Result{}, err
	}

	log.Info("dataset created", "id", ds.ID, "workspace", c.settings.Workspace)

	base := "/api/v1/datasets/" + ds.ID

	for _, f := range p.Fields {
		if err := c.call(ctx, "create field "+f.Name, http.MethodPost, base+"/fields", fieldCreate{
			Name:     f.Name,
			Title:    f.Title,
			Required: true,
			Settings: fieldSettings{Type: "text"},
		}, nil); err != nil {
			return Result{}, err
		}
	}

	questionIDs := make(map[string]string, len(p.Questions))

	for _, q := range p.Questions {
		var qc created
		if err := c.call(ctx, "create question "+q.Name, http.MethodPost, base+"/questions", questionBody(q), &qc); err != nil {
			return Result{}, err
		}

		questionIDs[q.Title] = qc.ID
	}

	if err := c.call(ctx, "publish", http.MethodPut, base+"/publish", nil, nil); err != nil {
		return Result{}, err
	}

	res := Result{DatasetID: ds.ID}

	for start := 0; start < len(p.Records); start += c.settings.BatchSize {
		end := min(start+c.settings.BatchSize, len(p.Records))

		items := make([]recordItem, 0, end-start)
		for i := start; i < end; i++ {
			items = append(items, c.recordItem(i, p.Records[i], p.Questions, questionIDs))
		}

		if err := c.call(ctx, fmt.Sprintf("upload records %d-%d", start, end-1), http.MethodPut, base+"/records/bulk", recordsBulk{Items: items}, nil); err != nil {
			return res, err
		}

		res.Records += len(items)
		res.Batches++
		log.Debug("records uploaded", "from", start, "to", end-1)
	}

	log.Info("upload finished", "records", res.Records, "batches", res.Batches)

	return res, nil
}

func (c *Client) workspaceID(ctx context.Context) (string, error) {
	var list workspaceList
	if err := c.call(ctx, "list workspaces", http.MethodGet, "/api/v1/me/workspaces", nil, &list); err != nil {
		return "", err
	}

	for _, ws := range list.Items {
		if ws.Name == c.settings.Workspace {
			return ws.ID, nil
		}
	}

	return "", &UploadError{Op: "list workspaces", Err: fmt.Errorf("workspace %q not found", c.settings.Workspace)}
}

func questionBody(q export.QuestionSpec) questionCreate {
	body := questionCreate{
		Name:        q.Name,
		Title:       q.Title,
		Description: q.Description,
	}

	switch q.Type {
	case question.TypeLabel:
		body.Settings.Type = "label_selection"
	case question.TypeMultiLabel:
		body.Settings.Type = "multi_label_selection"
	case question.TypeRating:
		body.Settings.Type = "rating"
	}

	for _, l := range q.Labels {
		body.Settings.Options = append(body.Settings.Options, option{Value: l, Text: l})
	}

	for _, v := range q.Values {
		body.Settings.Options = append(body.Settings.Options, option{Value: v})
	}

	return body
}

// RecordID returns the id a record at index gets in dataset name.
func RecordID(name string, index int) string {
	return uuid.NewSHA1(recordNamespace, []byte(name+"/"+strconv.Itoa(index))).String()
}

func (c *Client) recordItem(i int, rec export.Record, questions []export.QuestionSpec, ids map[string]string) recordItem {
	item := recordItem{
		ID:         RecordID(c.settings.Dataset, i),
		ExternalID: strconv.Itoa(i),
		Fields:     make(map[string]string, rec.Fields.Len()),
	}

	for _, k := range rec.Fields.Keys() {
		v, _ := rec.Fields.Get(k)
		item.Fields[k] = dataset.FormatValue(v)
	}

	for _, q := range questions {
		v, _ := rec.Annotations.Get(q.Title)
		if v == nil {
			continue
		}

		if q.Type == question.TypeMultiLabel {
			v = splitLabels(v)
		}

		item.Suggestions = append(item.Suggestions, suggestion{QuestionID: ids[q.Title], Value: v})
	}

	return item
}

// splitLabels turns a joined multi-label answer back into the list the
// platform expects. Nothing checked becomes an empty list.
func splitLabels(v any) any {
	s, ok := v.(string)
	if !ok {
		return v
	}

	labels := []string{}

	for _, part := range strings.Split(s, question.LabelSeparator) {
		if part = strings.TrimSpace(part); part != "" {
			labels = append(labels, part)
		}
	}

	return labels
}
