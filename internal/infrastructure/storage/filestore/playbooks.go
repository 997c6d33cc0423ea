package filestore

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/turtacn/LexCase-Intelligence/internal/domain/legalcase"
	"github.com/turtacn/LexCase-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/LexCase-Intelligence/pkg/errors"
)

// ListPlaybooks decodes every playbook file in the playbooks directory, in
// file-name order.  A file that fails to decode is logged and skipped so one
// broken playbook does not take the others down.
func (s *Store) ListPlaybooks(ctx context.Context) ([]legalcase.Playbook, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(s.path(PlaybooksDir))
	if err != nil {
		if os.IsNotExist(err) {
			return []legalcase.Playbook{}, nil
		}
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to read playbooks directory")
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && playbookFormat(e.Name()) != "" {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	playbooks := make([]legalcase.Playbook, 0, len(names))
	for _, name := range names {
		pb, err := decodePlaybookFile(s.path(PlaybooksDir, name))
		if err != nil {
			s.logger.Warn("skipping unreadable playbook", logging.String("file", name), logging.Err(err))
			continue
		}
		if pb.ID == "" {
			pb.ID = strings.TrimSuffix(name, filepath.Ext(name))
		}
		playbooks = append(playbooks, *pb)
	}
	return playbooks, nil
}

// GetPlaybook returns the playbook whose id is id.
func (s *Store) GetPlaybook(ctx context.Context, id string) (*legalcase.Playbook, error) {
	all, err := s.ListPlaybooks(ctx)
	if err != nil {
		return nil, err
	}
	for i := range all {
		if all[i].ID == id {
			return &all[i], nil
		}
	}
	return nil, nil
}

func playbookFormat(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		return "yaml"
	case ".json":
		return "json"
	case ".toml":
		return "toml"
	default:
		return ""
	}
}

func decodePlaybookFile(path string) (*legalcase.Playbook, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to read playbook")
	}
	return DecodePlaybook(playbookFormat(path), data)
}

// DecodePlaybook parses a playbook in the named format (yaml, json or toml).
// Node ids inside the decision tree default to their map keys.
func DecodePlaybook(format string, data []byte) (*legalcase.Playbook, error) {
	var pb legalcase.Playbook
	var err error
	switch format {
	case "yaml":
		err = yaml.Unmarshal(data, &pb)
	case "json":
		err = json.Unmarshal(data, &pb)
	case "toml":
		err = toml.Unmarshal(data, &pb)
	default:
		return nil, errors.InvalidParam("unsupported playbook format " + format)
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to decode "+format+" playbook")
	}
	pb.DecisionTree.FillNodeIDs()
	return &pb, nil
}

//Personal.AI order the ending
