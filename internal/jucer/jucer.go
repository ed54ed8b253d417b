// Package jucer edits Projucer project files.
//
// A project file is an XML document rooted at JUCERPROJECT. Only a fixed set
// of attributes is rewritten; the rest of the document is written back as it
// was read, apart from attribute escaping: newlines, tabs and carriage
// returns become character references, quotes and apostrophes are written
// as XML requires.
package jucer

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/beevik/etree"
)

var (
	// ErrUnsupportedPluginType is returned for a type other than VST3, AU
	// or iOS.
	ErrUnsupportedPluginType = errors.New("unsupported plugin type")

	// ErrMalformedProject is returned when a required element is missing.
	ErrMalformedProject = errors.New("malformed project file")
)

// VendorPrefix prefixes bundle and AAX identifiers.
const VendorPrefix = "com.cycling74"

// NamePrefix prefixes derived plugin names and template file names.
const NamePrefix = "C74-Gen"

// OutputPrefix is prepended to the template file name of a rewritten project.
const OutputPrefix = "out-"

// PluginType is the kind of plugin being exported.
type PluginType string

const (
	VST3 PluginType = "VST3"
	AU   PluginType = "AU"
	IOS  PluginType = "iOS"
)

var templates = map[PluginType]string{
	VST3: NamePrefix + "-VST3Plugin.jucer",
	AU:   NamePrefix + "-AUPlugin.jucer",
	IOS:  NamePrefix + "-Application.jucer",
}

// ParsePluginType validates s.
func ParsePluginType(s string) (PluginType, error) {
	t := PluginType(s)
	if _, ok := templates[t]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedPluginType, s)
	}
	return t, nil
}

// TemplateName returns the template file name for t, or "" for an unknown
// type.
func TemplateName(t PluginType) string {
	return templates[t]
}

// DefaultName is the plugin name used when none is given.
func DefaultName(t PluginType) string {
	return NamePrefix + "-" + string(t) + "Plugin"
}

// ResolveName returns name, or DefaultName(t) when name is empty.
func ResolveName(name string, t PluginType) string {
	if name == "" {
		return DefaultName(t)
	}
	return name
}

// BundleIdentifier returns the bundle identifier for a plugin name.
func BundleIdentifier(name string) string {
	return VendorPrefix + "." + name
}

// OutputPath returns the path of the rewritten copy of a template.
func OutputPath(templatePath string) string {
	dir, base := filepath.Split(templatePath)
	return filepath.Join(dir, OutputPrefix+base)
}

// Element names.
const (
	TagProject       = "JUCERPROJECT"
	TagMainGroup     = "MAINGROUP"
	TagExportFormats = "EXPORTFORMATS"
	TagConfiguration = "CONFIGURATION"
	TagXcodeMac      = "XCODE_MAC"
	TagXcodeIPhone   = "XCODE_IPHONE"
	TagVS2019        = "VS2019"
)

// Exporters lists the export nodes whose configuration gets a target name.
var Exporters = []string{TagXcodeMac, TagXcodeIPhone, TagVS2019}

// Metadata is the user-supplied plugin description.
type Metadata struct {
	Name           string
	ChannelConfigs string
}

// Document is a parsed project file.
type Document struct {
	doc *etree.Document
}

// Parse reads a project from data.
func Parse(data []byte) (*Document, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, fmt.Errorf("failed to parse project: %w", err)
	}
	if doc.Root() == nil {
		return nil, fmt.Errorf("%w: empty document", ErrMalformedProject)
	}
	// Newlines and tabs in attribute values are written as character
	// references; a literal one would be normalized to a space on reload.
	doc.WriteSettings.CanonicalAttrVal = true
	return &Document{doc: doc}, nil
}

// Load reads a project file from disk.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	d, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return d, nil
}

func (d *Document) project() (*etree.Element, error) {
	p := d.doc.FindElement("//" + TagProject)
	if p == nil {
		return nil, fmt.Errorf("%w: no %s element", ErrMalformedProject, TagProject)
	}
	return p, nil
}

// Apply writes the metadata into the project. Export nodes absent from the
// document are skipped.
func (d *Document) Apply(m Metadata) error {
	project, err := d.project()
	if err != nil {
		return err
	}
	mainGroup := project.FindElement(".//" + TagMainGroup)
	if mainGroup == nil {
		return fmt.Errorf("%w: no %s element", ErrMalformedProject, TagMainGroup)
	}

	bundleID := BundleIdentifier(m.Name)
	project.CreateAttr("name", m.Name)
	project.CreateAttr("bundleIdentifier", bundleID)
	project.CreateAttr("pluginName", m.Name)
	project.CreateAttr("pluginAUExportPrefix", m.Name+"AU")
	project.CreateAttr("aaxIdentifier", bundleID)
	project.CreateAttr("pluginChannelConfigs", m.ChannelConfigs)

	mainGroup.CreateAttr("name", m.Name)

	formats := project.FindElement(".//" + TagExportFormats)
	if formats == nil {
		return nil
	}
	for _, tag := range Exporters {
		exporter := formats.FindElement(".//" + tag)
		if exporter == nil {
			continue
		}
		if conf := exporter.FindElement(".//" + TagConfiguration); conf != nil {
			conf.CreateAttr("targetName", m.Name)
		}
	}
	return nil
}

// Attr returns the value of attr on the first element matching path, and
// whether both exist.
func (d *Document) Attr(path, attr string) (string, bool) {
	el := d.doc.FindElement(path)
	if el == nil {
		return "", false
	}
	a := el.SelectAttr(attr)
	if a == nil {
		return "", false
	}
	return a.Value, true
}

// TargetFolder returns the targetFolder of an exporter, if set.
func (d *Document) TargetFolder(exporter string) (string, bool) {
	return d.Attr("//"+TagExportFormats+"//"+exporter, "targetFolder")
}

// Bytes serializes the document.
func (d *Document) Bytes() ([]byte, error) {
	return d.doc.WriteToBytes()
}

// WriteFile serializes the document to path.
func (d *Document) WriteFile(path string) error {
	data, err := d.Bytes()
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
