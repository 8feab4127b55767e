package load

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v3"
)

// FormatOutput writes the load result in the requested format
func FormatOutput(w io.Writer, response *Response, format string) error {
	switch format {
	case "json":
		return formatJSON(w, response)
	case "yaml":
		return formatYAML(w, response)
	case "table":
		return formatTable(w, response)
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
}

// formatTable formats the result as a key/value table
func formatTable(w io.Writer, response *Response) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintf(tw, "IMAGE\t%s\n", response.Image)
	fmt.Fprintf(tw, "PARTITION\t%d (%s) blocks [%d,%d)\n",
		response.Partition.Index, response.Partition.Name,
		response.Partition.StartBlock, response.Partition.EndBlock)
	fmt.Fprintf(tw, "POLICY\t%s\n", response.Policy)
	fmt.Fprintf(tw, "KERNEL\t%s\n", response.Kernel)
	fmt.Fprintf(tw, "ADDRESS\t%#x\n", response.Address)
	fmt.Fprintf(tw, "SIZE\t%s (%d bytes)\n", humanize.IBytes(uint64(response.Bytes)), response.Bytes)
	fmt.Fprintf(tw, "BLOCK LOADS\t%s\n", humanize.Comma(int64(response.BlockLoads)))
	fmt.Fprintf(tw, "ELAPSED\t%v\n", response.Elapsed)
	if response.OutPath != "" {
		fmt.Fprintf(tw, "WRITTEN TO\t%s\n", response.OutPath)
	}

	return tw.Flush()
}

// formatJSON formats the result as JSON
func formatJSON(w io.Writer, response *Response) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(response)
}

// formatYAML formats the result as YAML
func formatYAML(w io.Writer, response *Response) error {
	encoder := yaml.NewEncoder(w)
	defer encoder.Close()
	encoder.SetIndent(2)
	return encoder.Encode(response)
}
