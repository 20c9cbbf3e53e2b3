package fastbound

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// AccountInfo is the slice of GET /api/Account the tools care about: the
// account owner's own license, which merge planning must never target.
type AccountInfo struct {
	Name      string `json:"name"`
	FFLNumber string `json:"fflNumber"`
}

// GetAccount fetches the account record.
func (c *Client) GetAccount(ctx context.Context) (*AccountInfo, error) {
	res, err := c.do(ctx, http.MethodGet, c.accountPath("/Account"), nil, nil, nil)
	if err != nil {
		return nil, err
	}
	var info AccountInfo
	if err := json.Unmarshal(res.body, &info); err != nil {
		return nil, fmt.Errorf("GET %s: decoding account: %w", c.accountPath("/Account"), err)
	}
	return &info, nil
}
