package profile

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"customer-segmentation/internal/models"
)

// WriteJSON encodes the document as indented JSON.
func WriteJSON(w io.Writer, doc *models.ProfileDocument) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

// WriteYAML encodes the document as YAML.
func WriteYAML(w io.Writer, doc *models.ProfileDocument) error {
	enc := yaml.NewEncoder(w)
	defer enc.Close()
	return enc.Encode(doc)
}

// WriteFlatCSV encodes the document as sorted key,value rows with nested
// fields joined by dots. It round-trips numbers at full float64 precision.
func WriteFlatCSV(w io.Writer, doc *models.ProfileDocument) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	var tree map[string]interface{}
	if err := json.Unmarshal(raw, &tree); err != nil {
		return err
	}

	flat := map[string]string{}
	flatten("", tree, flat)
	keys := make([]string, 0, len(flat))
	for k := range flat {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"key", "value"}); err != nil {
		return err
	}
	for _, k := range keys {
		if err := cw.Write([]string{k, flat[k]}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func flatten(prefix string, v interface{}, out map[string]string) {
	switch t := v.(type) {
	case map[string]interface{}:
		for k, child := range t {
			flatten(joinKey(prefix, k), child, out)
		}
	case []interface{}:
		for i, child := range t {
			flatten(joinKey(prefix, strconv.Itoa(i)), child, out)
		}
	case json.Number:
		out[prefix] = t.String()
	case float64:
		out[prefix] = strconv.FormatFloat(t, 'g', -1, 64)
	case bool:
		out[prefix] = strconv.FormatBool(t)
	case nil:
		out[prefix] = ""
	default:
		out[prefix] = fmt.Sprint(t)
	}
}

func joinKey(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}

// Filename builds the conventional profile file name for a method and
// extension, e.g. gmm_cluster_profile_20260827_153000.json.
func Filename(method, ext string, ts time.Time) string {
	return fmt.Sprintf("%s_cluster_profile_%s.%s", method, ts.Format("20060102_150405"), ext)
}
