package edge

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

type StatsQuery struct {
	Environment string
	Dimension   string
	Select      string
	// TimeRange is "MM/DD/YYYY HH:MM~MM/DD/YYYY HH:MM".
	TimeRange string
	TimeUnit  string
}

type Stats struct {
	Environments []StatsEnvironment `json:"environments"`
}

type StatsEnvironment struct {
	Name       string           `json:"name"`
	Dimensions []StatsDimension `json:"dimensions"`
}

type StatsDimension struct {
	Name    string        `json:"name"`
	Metrics []StatsMetric `json:"metrics"`
}

type StatsMetric struct {
	Name   string       `json:"name"`
	Values []StatsValue `json:"values"`
}

type StatsValue struct {
	Timestamp int64       `json:"timestamp"`
	Value     StatsNumber `json:"value"`
}

// StatsNumber accepts both the quoted ("12.0") and the plain form of a metric value.
type StatsNumber float64

func (n *StatsNumber) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*n = 0
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("edge: invalid metric value %s", b)
	}
	*n = StatsNumber(f)
	return nil
}

func (c *Client) QueryStats(ctx context.Context, q StatsQuery) (*Stats, error) {
	var s Stats
	query := encodeQuery("select", q.Select, "timeRange", q.TimeRange, "timeUnit", q.TimeUnit)
	if err := c.getJSON(ctx, "environments/"+q.Environment+"/stats/"+q.Dimension, query, &s); err != nil {
		return nil, err
	}
	return &s, nil
}
