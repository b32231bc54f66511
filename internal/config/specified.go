package config

import "gopkg.in/yaml.v3"

// hasKey reports whether a mapping node carries key, so explicit zero values
// can be told apart from omitted ones.
func hasKey(node *yaml.Node, key string) bool {
	if node == nil || node.Kind != yaml.MappingNode {
		return false
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == key {
			return true
		}
	}
	return false
}

func (r *RetryConfig) UnmarshalYAML(value *yaml.Node) error {
	type plain RetryConfig
	var p plain
	if err := value.Decode(&p); err != nil {
		return err
	}
	*r = RetryConfig(p)
	r.maxRetriesSpecified = hasKey(value, "max_retries")
	return nil
}

func (d *DaemonConfig) UnmarshalYAML(value *yaml.Node) error {
	type plain DaemonConfig
	var p plain
	if err := value.Decode(&p); err != nil {
		return err
	}
	*d = DaemonConfig(p)
	d.adminAddrSpecified = hasKey(value, "admin_addr")
	return nil
}
