package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/IgorAraujoV/agilean-core-api/internal/calendar"
	"github.com/IgorAraujoV/agilean-core-api/internal/graph"
	"github.com/IgorAraujoV/agilean-core-api/internal/loader"
	"github.com/IgorAraujoV/agilean-core-api/internal/model"
	"github.com/IgorAraujoV/agilean-core-api/internal/propagation"
	"github.com/IgorAraujoV/agilean-core-api/internal/ui"
	"github.com/spf13/cobra"
)

var inspectCmd = &cobra.Command{
	Use:     "inspect",
	Short:   "Show a building's schedule straight from the database",
	GroupID: "views",
}

var inspectTreeCmd = &cobra.Command{
	Use:   "tree <building-id>",
	Short: "Show the space tree with the packages scheduled on each space",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		b, m, err := loadBuilding(cmd, args[0])
		if err != nil {
			return err
		}
		if jsonOutput {
			ds := graph.Export(b)
			ds.SortByID()
			return printJSON(cmd.OutOrStdout(), ds)
		}
		writeTree(cmd.OutOrStdout(), b, m)
		return nil
	},
}

var inspectLinksCmd = &cobra.Command{
	Use:   "links <building-id>",
	Short: "List the links between packages",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		b, _, err := loadBuilding(cmd, args[0])
		if err != nil {
			return err
		}
		links := sortedLinks(b)
		if jsonOutput {
			rows := make([]*model.Link, len(links))
			for i, l := range links {
				rows[i] = graph.LinkRow(l)
			}
			return printJSON(cmd.OutOrStdout(), rows)
		}
		return writeLinks(cmd.OutOrStdout(), links)
	},
}

var inspectCrewsCmd = &cobra.Command{
	Use:   "crews <building-id>",
	Short: "List the crews of every line with their column span",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		b, _, err := loadBuilding(cmd, args[0])
		if err != nil {
			return err
		}
		if jsonOutput {
			var rows []*model.Crew
			for _, c := range b.Crews() {
				rows = append(rows, graph.CrewRow(c))
			}
			return printJSON(cmd.OutOrStdout(), rows)
		}
		return writeCrews(cmd.OutOrStdout(), b)
	},
}

// loadBuilding hydrates the full graph of a building and returns it with its
// column/date mapping.
func loadBuilding(cmd *cobra.Command, buildingID string) (*graph.Building, calendar.Mapper, error) {
	cfg, store, err := openStore(cmd.Context())
	if err != nil {
		return nil, nil, err
	}
	defer store.Close()

	b, err := loader.New(store, newLogger()).LoadWithPackages(cmd.Context(), buildingID)
	if err != nil {
		return nil, nil, err
	}
	return b, propagation.LinearMapper(cfg.SlotsPerDay)(b), nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// writeTree prints every space depth first. The packages of a space are
// listed under it, before its children, ordered by start column.
func writeTree(w io.Writer, b *graph.Building, m calendar.Mapper) {
	fmt.Fprintf(w, "%s %s %s\n", ui.RenderAccent(b.ID), b.Name,
		ui.RenderMuted("first date "+b.FirstDate.Format(model.DateLayout)))

	bySpace := make(map[*graph.Space][]*graph.Package)
	for _, c := range b.Crews() {
		for _, p := range c.Packages {
			bySpace[p.Space] = append(bySpace[p.Space], p)
		}
	}
	for _, u := range b.Units {
		writeSpace(w, u, 0, bySpace, m)
	}
}

func writeSpace(w io.Writer, s *graph.Space, depth int, bySpace map[*graph.Space][]*graph.Package, m calendar.Mapper) {
	indent := strings.Repeat("  ", depth)
	fmt.Fprintf(w, "%s%s %s\n", indent, s.Name, ui.RenderMuted("("+s.ID+")"))

	pkgs := bySpace[s]
	sort.Slice(pkgs, func(i, j int) bool {
		if pkgs[i].Start != pkgs[j].Start {
			return pkgs[i].Start < pkgs[j].Start
		}
		return pkgs[i].ID < pkgs[j].ID
	})
	for _, p := range pkgs {
		fmt.Fprintf(w, "%s  %s %s %d-%d %s..%s %s\n", indent,
			ui.RenderAccent(p.ID), p.Stage().Name, p.Start, p.End,
			m.DateOf(p.Start).Format(model.DateLayout),
			m.DateOf(p.End).Format(model.DateLayout),
			ui.RenderStatus(p.Status))
	}
	for _, c := range s.Children {
		writeSpace(w, c, depth+1, bySpace, m)
	}
}

func sortedLinks(b *graph.Building) []*graph.Link {
	links := b.Links()
	sort.Slice(links, func(i, j int) bool { return links[i].ID < links[j].ID })
	return links
}

func writeLinks(w io.Writer, links []*graph.Link) error {
	if len(links) == 0 {
		fmt.Fprintln(w, "No links found.")
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSOURCE\tDEST\tLATENCY\tLOCKED")
	for _, l := range links {
		locked := "no"
		if l.Locked {
			locked = "yes"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n", l.ID, l.Source.ID, l.Dest.ID, l.Latency, locked)
	}
	return tw.Flush()
}

func writeCrews(w io.Writer, b *graph.Building) error {
	crews := b.Crews()
	if len(crews) == 0 {
		fmt.Fprintln(w, "No crews found.")
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "LINE\tCREW\tSTAGE\tPOSITION\tPACKAGES\tSPAN")
	for _, c := range crews {
		span := "-"
		if len(c.Packages) > 0 {
			first, last := c.Packages[0].Start, c.Packages[0].End
			for _, p := range c.Packages[1:] {
				first, last = min(first, p.Start), max(last, p.End)
			}
			span = fmt.Sprintf("%d-%d", first, last)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%s\n", c.Line.ID, c.ID, c.Stage.Name, c.Position(), len(c.Packages), span)
	}
	return tw.Flush()
}

func init() {
	inspectCmd.AddCommand(inspectTreeCmd)
	inspectCmd.AddCommand(inspectLinksCmd)
	inspectCmd.AddCommand(inspectCrewsCmd)
}
