package inspect

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v3"
)

// FormatPartitions writes a partition listing in the requested format
func FormatPartitions(w io.Writer, response *PartitionsResponse, format string) error {
	switch format {
	case "json":
		return formatJSON(w, response)
	case "yaml":
		return formatYAML(w, response)
	case "table":
		return formatPartitionTable(w, response)
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
}

// FormatList writes a root directory listing in the requested format
func FormatList(w io.Writer, response *ListResponse, format string) error {
	switch format {
	case "json":
		return formatJSON(w, response)
	case "yaml":
		return formatYAML(w, response)
	case "table":
		return formatListTable(w, response)
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
}

func formatPartitionTable(w io.Writer, response *PartitionsResponse) error {
	if len(response.Partitions) == 0 {
		fmt.Fprintln(w, "No partitions found.")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "INDEX\tNAME\tSTART\tEND\tSIZE\tTYPE\tROOT\n")
	fmt.Fprintf(tw, "-----\t----\t-----\t---\t----\t----\t----\n")
	for _, p := range response.Partitions {
		root := ""
		if p.Root {
			root = "*"
		}
		fmt.Fprintf(tw, "%d\t%s\t%d\t%d\t%s\t%s\t%s\n",
			p.Index, p.Name, p.StartBlock, p.EndBlock, p.Size, p.Type, root)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(w, "\nDisk %s: %d of %d entries used\n",
		response.DiskGUID, len(response.Partitions), response.EntryCount)
	return nil
}

func formatListTable(w io.Writer, response *ListResponse) error {
	fmt.Fprintf(w, "Partition %d (%s) %s", response.Partition.Index, response.Partition.Name, response.FileSystem)
	if response.Label != "" {
		fmt.Fprintf(w, " %q", response.Label)
	}
	fmt.Fprintln(w)

	if len(response.Files) == 0 {
		fmt.Fprintln(w, "Root directory is empty.")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "NAME\tTYPE\tSIZE\n")
	fmt.Fprintf(tw, "----\t----\t----\n")
	for _, f := range response.Files {
		if f.Dir {
			fmt.Fprintf(tw, "%s\tdir\t-\n", f.Name)
		} else {
			fmt.Fprintf(tw, "%s\tfile\t%s\n", f.Name, humanize.IBytes(f.Size))
		}
	}
	return tw.Flush()
}

func formatJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func formatYAML(w io.Writer, v any) error {
	encoder := yaml.NewEncoder(w)
	defer encoder.Close()
	encoder.SetIndent(2)
	return encoder.Encode(v)
}
