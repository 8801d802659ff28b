package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JakeFAU/rtcv-scraper-bridge/pkg/scraper"
)

type serverStatus struct {
	Server  string `json:"server"`
	Healthy bool   `json:"healthy"`
	Active  bool   `json:"active"`
	Error   string `json:"error,omitempty"`
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "status",
		Short:       "Checks RT-CV health and whether this scraper may run",
		Annotations: map[string]string{oneShotAnnotation: "true"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := appFrom(cmd.Context())
			if err != nil {
				return err
			}

			out := []serverStatus{probe(cmd, a.server)}
			if alt := a.server.Alternative(); alt != nil {
				out = append(out, probe(cmd, alt))
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(out); err != nil {
				return fmt.Errorf("write status: %w", err)
			}
			if !out[0].Healthy {
				return fmt.Errorf("rtcv at %s is not healthy", out[0].Server)
			}
			return nil
		},
	}
}

func probe(cmd *cobra.Command, s *scraper.Server) serverStatus {
	st := serverStatus{Server: s.APIServer()}
	if err := s.Health(cmd.Context()); err != nil {
		st.Error = err.Error()
		return st
	}
	st.Healthy = true

	var resp struct {
		Active bool `json:"active"`
	}
	if err := s.Fetch(cmd.Context(), "/api/v1/scraper/status", scraper.FetchOptions{}, &resp); err != nil {
		st.Error = err.Error()
		return st
	}
	st.Active = resp.Active
	return st
}
