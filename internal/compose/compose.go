// Package compose locates and parses the docker compose descriptor of a
// service directory. The health monitor only needs to know whether a
// descriptor exists; the CLI and TUI detail views additionally show the
// services a compose file declares.
package compose

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/compose-spec/compose-go/v2/cli"
	yamlv3 "gopkg.in/yaml.v3"

	"fleetctl/pkg/logging"
)

const logSubsystem = "Compose"

// Filenames docker compose recognizes, in the order it probes them.
var candidateNames = []string{"docker-compose.yml", "docker-compose.yaml"}

// File returns the compose descriptor path inside dir, if one exists.
func File(dir string) (string, bool) {
	for _, name := range candidateNames {
		candidate := filepath.Join(dir, name)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, true
		}
	}
	return "", false
}

// ServiceSummary describes one service declared in a compose file.
type ServiceSummary struct {
	Name  string   `json:"name"`
	Image string   `json:"image,omitempty"`
	Ports []string `json:"ports,omitempty"`
}

// Services parses the compose file in dir and returns the declared services,
// name-sorted. The compose-go loader is tried first; files it rejects fall
// back to a bare YAML parse so a slightly off-spec file still yields names.
func Services(ctx context.Context, dir string) ([]ServiceSummary, error) {
	file, ok := File(dir)
	if !ok {
		return nil, fmt.Errorf("no compose file in %s", dir)
	}

	opts, err := cli.NewProjectOptions(
		[]string{file},
		cli.WithDotEnv,
		cli.WithInterpolation(false),
	)
	if err != nil {
		return nil, fmt.Errorf("project options: %w", err)
	}

	project, err := cli.ProjectFromOptions(ctx, opts)
	if err != nil {
		logging.Debug(logSubsystem, "Loader rejected %s, using raw parse: %v", file, err)
		return parseFallback(file)
	}

	var out []ServiceSummary
	for _, svc := range project.Services {
		summary := ServiceSummary{Name: svc.Name, Image: svc.Image}
		for _, p := range svc.Ports {
			if p.Published != "" {
				summary.Ports = append(summary.Ports, fmt.Sprintf("%s:%d", p.Published, p.Target))
			} else {
				summary.Ports = append(summary.Ports, fmt.Sprintf("%d", p.Target))
			}
		}
		out = append(out, summary)
	}
	sortSummaries(out)
	return out, nil
}

// parseFallback uses raw YAML parsing when compose-go fails.
func parseFallback(file string) ([]ServiceSummary, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}

	var raw map[string]interface{}
	if err := yamlv3.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("yaml parse: %w", err)
	}

	servicesMap, ok := raw["services"].(map[string]interface{})
	if !ok {
		return nil, nil
	}

	var out []ServiceSummary
	for name, svcData := range servicesMap {
		summary := ServiceSummary{Name: name}
		if svcMap, ok := svcData.(map[string]interface{}); ok {
			if image, ok := svcMap["image"].(string); ok {
				summary.Image = image
			}
			if ports, ok := svcMap["ports"].([]interface{}); ok {
				for _, p := range ports {
					if s, ok := p.(string); ok {
						summary.Ports = append(summary.Ports, s)
					}
				}
			}
		}
		out = append(out, summary)
	}
	sortSummaries(out)
	return out, nil
}

func sortSummaries(s []ServiceSummary) {
	sort.Slice(s, func(i, j int) bool { return s[i].Name < s[j].Name })
}
