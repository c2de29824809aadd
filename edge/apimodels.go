package edge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

type ApiModel struct {
	Id          string `json:"id,omitempty"`
	Name        string `json:"name"`
	DisplayName string `json:"displayName,omitempty"`
	Description string `json:"description,omitempty"`
}

func (c *Client) GetApiModel(ctx context.Context, name string) (*ApiModel, error) {
	var m ApiModel
	if err := c.getJSON(ctx, "apimodels/"+name, "", &m); err != nil {
		return nil, err
	}
	return &m, nil
}

func (c *Client) CreateApiModel(ctx context.Context, model ApiModel) (*ApiModel, error) {
	payload, err := json.Marshal(model)
	if err != nil {
		return nil, fmt.Errorf("edge: failed to encode api model: %w", err)
	}
	data, err := c.send(ctx, http.MethodPost, "apimodels", "", http.StatusCreated, bytes.NewReader(payload), "Content-Type", "application/json")
	if err != nil {
		return nil, err
	}
	var created ApiModel
	if err = decode(data, "apimodels", &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// ImportApiModelRevision uploads a model document as a new revision of the api model name.
func (c *Client) ImportApiModelRevision(ctx context.Context, name string, document []byte) error {
	_, err := c.send(ctx, http.MethodPost, "apimodels/"+name+"/revisions", "action=import&format=apimodel", http.StatusCreated,
		bytes.NewReader(document), "Content-Type", "application/json")
	return err
}
