package service

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/classkit/internal/bytesource"
	"github.com/classkit/internal/classfile"
	"github.com/classkit/internal/compare"
	"github.com/classkit/internal/mapping"
	"github.com/classkit/pkg/parallel"
	"github.com/classkit/pkg/telemetry"
)

// MemberReport describes a field or method.
type MemberReport struct {
	Name         string   `json:"name"`
	Desc         string   `json:"desc"`
	Access       string   `json:"access,omitempty"`
	MappedName   string   `json:"mapped_name,omitempty"`
	Instructions int      `json:"instructions,omitempty"`
	Annotations  []string `json:"annotations,omitempty"`
}

// ClassReport describes a decoded class.
type ClassReport struct {
	Name        string         `json:"name"`
	MappedName  string         `json:"mapped_name,omitempty"`
	Category    string         `json:"category"`
	Access      string         `json:"access,omitempty"`
	Version     string         `json:"version"`
	Super       string         `json:"super,omitempty"`
	Interfaces  []string       `json:"interfaces,omitempty"`
	SourceFile  string         `json:"source_file,omitempty"`
	Annotations []string       `json:"annotations,omitempty"`
	Fields      []MemberReport `json:"fields"`
	Methods     []MemberReport `json:"methods"`
}

// Inspect resolves name and describes it, with rename-table names and
// annotations rendered against their declared defaults.
func (s *Service) Inspect(ctx context.Context, name string) (report *ClassReport, err error) {
	_, span := telemetry.StartSpan(ctx, "service.Inspect", telemetry.AttrClass.String(name))
	defer func() { telemetry.EndSpan(span, err) }()

	info, err := s.resolver.Resolve(name)
	if err != nil {
		return nil, err
	}
	table, err := s.loader.Mappings()
	if err != nil {
		return nil, err
	}
	m := info.Model()

	report = &ClassReport{
		Name:       m.Name,
		Category:   s.filter.Classify(m.Name).String(),
		Access:     m.Access.ClassString(),
		Version:    fmt.Sprintf("%d.%d", m.MajorVersion, m.MinorVersion),
		Super:      m.SuperName,
		Interfaces: m.Interfaces,
		SourceFile: m.SourceFile,
		Fields:     make([]MemberReport, 0, len(m.Fields)),
		Methods:    make([]MemberReport, 0, len(m.Methods)),
	}
	if mapped := table.MapClassName(m.Name); mapped != m.Name {
		report.MappedName = mapped
	}
	if report.Annotations, err = s.formatAnnotations(m.Annotations); err != nil {
		return nil, err
	}

	for _, f := range m.Fields {
		mr := MemberReport{Name: f.Name, Desc: f.Desc, Access: f.Access.MemberString()}
		mr.MappedName, _ = table.Field(m.Name, f.Name, f.Desc)
		if mr.Annotations, err = s.formatAnnotations(f.Annotations); err != nil {
			return nil, err
		}
		report.Fields = append(report.Fields, mr)
	}
	for _, mm := range m.Methods {
		mr := MemberReport{Name: mm.Name, Desc: mm.Desc, Access: mm.Access.MemberString(), Instructions: len(mm.Instructions)}
		mr.MappedName, _ = table.Method(m.Name, mm.Name, mm.Desc)
		if mr.Annotations, err = s.formatAnnotations(mm.Annotations); err != nil {
			return nil, err
		}
		report.Methods = append(report.Methods, mr)
	}
	return report, nil
}

func (s *Service) formatAnnotations(anns []classfile.Annotation) ([]string, error) {
	if len(anns) == 0 {
		return nil, nil
	}
	views, err := s.views.Views(anns)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(views))
	for i, v := range views {
		out[i] = v.Format()
	}
	return out, nil
}

// HierarchyReport lists the supertypes of a class.
type HierarchyReport struct {
	Name    string   `json:"name"`
	Classes []string `json:"classes"`
	Missing []string `json:"missing,omitempty"`
}

// Hierarchy walks the supertypes and interfaces of name breadth first.
// Classes that no source supplies are reported instead of failing the walk.
func (s *Service) Hierarchy(ctx context.Context, name string, includeSelf bool) (report *HierarchyReport, err error) {
	_, span := telemetry.StartSpan(ctx, "service.Hierarchy", telemetry.AttrClass.String(name))
	defer func() { telemetry.EndSpan(span, err) }()

	info, err := s.resolver.Resolve(name)
	if err != nil {
		return nil, err
	}
	partial, err := s.resolver.PartialClosure(info, includeSelf)
	if err != nil {
		return nil, err
	}

	report = &HierarchyReport{Name: info.Name(), Classes: make([]string, 0, len(partial.Classes)), Missing: partial.Missing}
	for _, c := range partial.Classes {
		report.Classes = append(report.Classes, c.Name())
	}
	if !partial.Complete() {
		s.logger.Warn("Hierarchy of %s is incomplete, missing %s", name, strings.Join(partial.Missing, ", "))
	}
	return report, nil
}

// Diff compares the version of name in old with the version served by the
// service's sources.
func (s *Service) Diff(ctx context.Context, old bytesource.Source, name string, ignore compare.TagSet) (d *compare.ClassDiff, err error) {
	_, span := telemetry.StartSpan(ctx, "service.Diff", telemetry.AttrClass.String(name))
	defer func() { telemetry.EndSpan(span, err) }()

	data, err := old.Get(name)
	if err != nil {
		return nil, err
	}
	oldModel, err := classfile.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("old %s: %w", name, err)
	}
	info, err := s.resolver.Resolve(name)
	if err != nil {
		return nil, err
	}
	return compare.Diff(oldModel, info.Model(), ignore)
}

// DiffAll compares every class that both old and the service's sources can
// enumerate. Classes only one side has are listed in the report.
func (s *Service) DiffAll(ctx context.Context, old bytesource.Source, ignore compare.TagSet, workers int) (report *DiffReport, err error) {
	ctx, span := telemetry.StartSpan(ctx, "service.DiffAll")
	defer func() { telemetry.EndSpan(span, err) }()

	oldNames, err := enumerateNames(old)
	if err != nil {
		return nil, fmt.Errorf("old classes: %w", err)
	}
	newNames, err := enumerateNames(s.source)
	if err != nil {
		return nil, fmt.Errorf("new classes: %w", err)
	}

	report = &DiffReport{}
	var common []string
	for _, n := range oldNames {
		if _, ok := slices.BinarySearch(newNames, n); ok {
			common = append(common, n)
		} else {
			report.RemovedClasses = append(report.RemovedClasses, n)
		}
	}
	for _, n := range newNames {
		if _, ok := slices.BinarySearch(oldNames, n); !ok {
			report.AddedClasses = append(report.AddedClasses, n)
		}
	}
	span.SetAttributes(telemetry.AttrCount.Int(len(common)))

	results, _ := parallel.Map(ctx, common, parallel.DefaultConfig().WithWorkers(workers), func(ctx context.Context, name string) (*compare.ClassDiff, error) {
		return s.Diff(ctx, old, name, ignore)
	})
	for _, r := range results {
		if r.Err != nil {
			return nil, fmt.Errorf("diff %s: %w", r.Input, r.Err)
		}
		if !r.Value.Identical() {
			report.Changed = append(report.Changed, r.Value)
		}
	}
	report.Compared = len(common)
	return report, nil
}

// DiffReport summarizes a comparison of two class sets.
type DiffReport struct {
	Compared       int                  `json:"compared"`
	Changed        []*compare.ClassDiff `json:"changed,omitempty"`
	AddedClasses   []string             `json:"added_classes,omitempty"`
	RemovedClasses []string             `json:"removed_classes,omitempty"`
}

// enumerateNames returns the sorted internal names src can list.
func enumerateNames(src bytesource.Source) ([]string, error) {
	entries, err := bytesource.Enumerate(src)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for n := range entries {
		names = append(names, bytesource.InternalName(n))
	}
	slices.Sort(names)
	return slices.Compact(names), nil
}

// MappingReport summarizes the rename table.
type MappingReport struct {
	Dialect string               `json:"dialect"`
	Counts  map[mapping.Kind]int `json:"counts"`
	Entries []mapping.Entry      `json:"entries,omitempty"`
}

// Mappings loads the configured rename table. Entries are included when
// withEntries is set.
func (s *Service) Mappings(ctx context.Context, withEntries bool) (report *MappingReport, err error) {
	_, span := telemetry.StartSpan(ctx, "service.Mappings", telemetry.AttrDialect.String(s.config.Mapping.Dialect))
	defer func() { telemetry.EndSpan(span, err) }()

	table, err := s.loader.Mappings()
	if err != nil {
		return nil, err
	}
	report = &MappingReport{Dialect: s.config.Mapping.Dialect, Counts: table.Counts()}
	if withEntries {
		report.Entries = table.Entries()
	}
	return report, nil
}
