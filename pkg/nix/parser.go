// parser.go
package nix

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// parseNARInfo parses a .narinfo file
func parseNARInfo(content string) (*NARInfo, error) {
	info := &NARInfo{}

	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		switch key {
		case "StorePath":
			info.StorePath = value
		case "URL":
			info.URL = value
		case "Compression":
			info.Compression = value
		case "FileHash":
			info.FileHash = strings.TrimPrefix(value, "sha256:")
		case "FileSize":
			size, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid FileSize %q: %w", value, err)
			}
			info.FileSize = size
		case "NarHash":
			info.NarHash = strings.TrimPrefix(value, "sha256:")
		case "NarSize":
			size, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid NarSize %q: %w", value, err)
			}
			info.NarSize = size
		case "References":
			info.References = strings.Fields(value)
		case "Deriver":
			info.Deriver = value
		case "Sig":
			info.Signature = value
		}
	}

	if info.StorePath == "" {
		return nil, fmt.Errorf("missing StorePath in narinfo")
	}
	if info.URL == "" {
		return nil, fmt.Errorf("missing URL in narinfo")
	}
	// Nix treats an absent Compression field as bzip2
	if info.Compression == "" {
		info.Compression = CompressionBZip2
	}

	return info, nil
}

// hydraBuild is the JSON document Hydra serves for a build
type hydraBuild struct {
	ID           int `json:"id"`
	BuildStatus  int `json:"buildstatus"`
	Buildoutputs map[string]struct {
		Path string `json:"path"`
	} `json:"buildoutputs"`
}

// parseHydraBuild decodes the latest build of a Hydra job
func parseHydraBuild(r io.Reader) (*BuildInfo, error) {
	var build hydraBuild
	if err := json.NewDecoder(r).Decode(&build); err != nil {
		return nil, fmt.Errorf("parsing hydra response: %w", err)
	}

	if len(build.Buildoutputs) == 0 {
		return nil, fmt.Errorf("no outputs found in hydra response")
	}

	info := &BuildInfo{
		ID:      build.ID,
		Status:  build.BuildStatus,
		Outputs: make(map[string]string, len(build.Buildoutputs)),
	}
	for name, out := range build.Buildoutputs {
		info.Outputs[name] = out.Path
	}

	return info, nil
}
