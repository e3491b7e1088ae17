/*
Copyright 2023 eatmoreapple

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package dynasql

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"io/fs"
	unixpath "path"
	"strconv"
	"strings"

	"github.com/dynasql/dynasql/node"
)

// XMLParseError, buildXMLContent: see errors.go.

func parseErr(namespace string, start xml.StartElement, msg string) error {
	return &XMLParseError{Namespace: namespace, XMLContent: buildXMLContent(start), Err: errors.New(msg)}
}

// wrapParseErr attaches namespace/element context to err, unless err is
// already an XMLParseError (produced deeper in the recursion, where the
// context is more specific).
func wrapParseErr(namespace string, start xml.StartElement, err error) error {
	var xerr *XMLParseError
	if errors.As(err, &xerr) {
		return err
	}
	return &XMLParseError{Namespace: namespace, XMLContent: buildXMLContent(start), Err: err}
}

func attrValue(start xml.StartElement, name string) (string, bool) {
	for _, a := range start.Attr {
		if a.Name.Local == name {
			return a.Value, true
		}
	}
	return "", false
}

func attrValueOr(start xml.StartElement, name, fallback string) string {
	if v, ok := attrValue(start, name); ok {
		return v
	}
	return fallback
}

func attrInt(start xml.StartElement, name string) int64 {
	v, ok := attrValue(start, name)
	if !ok {
		return 0
	}
	n, _ := strconv.ParseInt(v, 10, 64)
	return n
}

// splitOverrides splits a "|"-separated list of trim override tokens, e.g.
// prefixOverrides="AND |OR ".
func splitOverrides(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, "|")
}

// XMLElementParser handles one top-level child element of <configuration>
// (environments, mappers, settings). Parse is called with the decoder
// positioned right after start has been consumed, and must itself consume
// tokens up to and including the matching end element.
type XMLElementParser interface {
	Element() string
	Parse(decoder *xml.Decoder, start xml.StartElement) error
}

// xmlElementParserBinder lets AddXMLElementParser hand a parser a back
// reference to the owning XMLParser, so it can resolve <mapper
// resource="..."/> files through the parser's FS.
type xmlElementParserBinder interface {
	bind(parser *XMLParser)
}

// XMLParser assembles a Configuration from a root <configuration> element,
// dispatching each recognized child element to a registered
// XMLElementParser.
type XMLParser struct {
	FS        fs.FS
	ignoreEnv bool

	elementParsers map[string]XMLElementParser

	environments *environments
	mappers      *Mappers
	settings     keyValueSettingProvider
}

// AddXMLElementParser registers parsers, keyed by their Element() name.
func (p *XMLParser) AddXMLElementParser(parsers ...XMLElementParser) {
	if p.elementParsers == nil {
		p.elementParsers = make(map[string]XMLElementParser, len(parsers))
	}
	for _, ep := range parsers {
		if binder, ok := ep.(xmlElementParserBinder); ok {
			binder.bind(p)
		}
		p.elementParsers[ep.Element()] = ep
	}
}

// Parse reads r as a <configuration> document and builds a Configuration
// from its recognized children. Unrecognized elements are skipped.
func (p *XMLParser) Parse(r io.Reader) (Configuration, error) {
	decoder := xml.NewDecoder(r)
	for {
		tok, err := decoder.Token()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, err
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		if start.Name.Local == "configuration" {
			continue
		}
		if start.Name.Local == "environments" && p.ignoreEnv {
			if err := decoder.Skip(); err != nil {
				return nil, err
			}
			continue
		}
		ep, exists := p.elementParsers[start.Name.Local]
		if !exists {
			if err := decoder.Skip(); err != nil {
				return nil, err
			}
			continue
		}
		if err := ep.Parse(decoder, start); err != nil {
			return nil, err
		}
	}

	cfg := &xmlConfiguration{environments: p.environments, mappers: p.mappers, settings: p.settings}
	if p.mappers != nil {
		p.mappers.cfg = cfg
	}
	return cfg, nil
}

// XMLEnvironmentsElementParser parses the <environments default="..."> block
// declaring one or more <environment id="..." driver="..." dataSource="..."/>
// entries.
type XMLEnvironmentsElementParser struct {
	parser *XMLParser
}

// Element implements XMLElementParser.
func (p *XMLEnvironmentsElementParser) Element() string { return "environments" }

func (p *XMLEnvironmentsElementParser) bind(parser *XMLParser) { p.parser = parser }

// Parse implements XMLElementParser.
func (p *XMLEnvironmentsElementParser) Parse(decoder *xml.Decoder, start xml.StartElement) error {
	envs := &environments{envs: make(map[string]*Environment)}
	for _, a := range start.Attr {
		envs.setAttribute(a.Name.Local, a.Value)
	}
	for {
		tok, err := decoder.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local != "environment" {
				if err := decoder.Skip(); err != nil {
					return err
				}
				continue
			}
			id, ok := attrValue(t, "id")
			if !ok || id == "" {
				return parseErr("", t, "id is required")
			}
			env := &Environment{
				Driver:              attrValueOr(t, "driver", ""),
				DataSource:          attrValueOr(t, "dataSource", ""),
				MaxOpenConnNum:      int(attrInt(t, "maxOpenConnNum")),
				MaxIdleConnNum:      int(attrInt(t, "maxIdleConnNum")),
				MaxConnLifetime:     attrInt(t, "maxConnLifetime"),
				MaxIdleConnLifetime: attrInt(t, "maxIdleConnLifetime"),
			}
			if providerName, ok := attrValue(t, "provider"); ok && providerName != "" {
				if provider := GetEnvValueProvider(providerName); provider != nil {
					resolved, err := provider.Get(env.DataSource)
					if err != nil {
						return wrapParseErr("", t, err)
					}
					env.DataSource = resolved
				}
			}
			if err := decoder.Skip(); err != nil {
				return err
			}
			envs.envs[id] = env
		case xml.EndElement:
			p.parser.environments = envs
			return nil
		}
	}
}

// XMLSettingsElementParser parses the <settings> block declaring
// <setting name="..." value="..."/> key/value pairs.
type XMLSettingsElementParser struct {
	parser *XMLParser
}

// Element implements XMLElementParser.
func (p *XMLSettingsElementParser) Element() string { return "settings" }

func (p *XMLSettingsElementParser) bind(parser *XMLParser) { p.parser = parser }

// Parse implements XMLElementParser.
func (p *XMLSettingsElementParser) Parse(decoder *xml.Decoder, start xml.StartElement) error {
	settings := keyValueSettingProvider{}
	for {
		tok, err := decoder.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local != "setting" {
				if err := decoder.Skip(); err != nil {
					return err
				}
				continue
			}
			name, ok := attrValue(t, "name")
			if !ok || name == "" {
				return parseErr("", t, "name attribute is required")
			}
			value, _ := attrValue(t, "value")
			settings[name] = value
			if err := decoder.Skip(); err != nil {
				return err
			}
		case xml.EndElement:
			p.parser.settings = settings
			return nil
		}
	}
}

// XMLMappersElementParser parses the <mappers> block, which declares mapper
// namespaces either inline or by reference (<mapper resource="path.xml"/>,
// resolved against the owning XMLParser's FS).
type XMLMappersElementParser struct {
	parser *XMLParser
}

// Element implements XMLElementParser.
func (p *XMLMappersElementParser) Element() string { return "mappers" }

func (p *XMLMappersElementParser) bind(parser *XMLParser) { p.parser = parser }

// Parse implements XMLElementParser.
func (p *XMLMappersElementParser) Parse(decoder *xml.Decoder, start xml.StartElement) error {
	if p.parser.mappers == nil {
		p.parser.mappers = &Mappers{}
	}
	for _, a := range start.Attr {
		p.parser.mappers.setAttribute(a.Name.Local, a.Value)
	}
	for {
		tok, err := decoder.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local != "mapper" {
				if err := decoder.Skip(); err != nil {
					return err
				}
				continue
			}
			mapper, err := p.resolveMapper(decoder, t)
			if err != nil {
				return err
			}
			if err := p.parser.mappers.setMapper(mapper.namespace, mapper); err != nil {
				return wrapParseErr(mapper.namespace, t, err)
			}
		case xml.EndElement:
			return nil
		}
	}
}

// resolveMapper loads a <mapper> element either inline or, if it carries a
// resource attribute, from the referenced file under p.parser.FS.
func (p *XMLMappersElementParser) resolveMapper(decoder *xml.Decoder, start xml.StartElement) (*Mapper, error) {
	resource, hasResource := attrValue(start, "resource")
	if !hasResource || resource == "" {
		return p.parseMapperElement(decoder, start)
	}
	if err := decoder.Skip(); err != nil {
		return nil, err
	}
	file, err := p.parser.FS.Open(resource)
	if err != nil {
		return nil, fmt.Errorf("failed to open mapper resource %q: %w", resource, err)
	}
	defer func() { _ = file.Close() }()
	return p.parseMapperByReader(file)
}

// parseMapperByReader parses r as a standalone <mapper namespace="..."> XML
// document: the root element itself is the mapper.
func (p *XMLMappersElementParser) parseMapperByReader(r io.Reader) (*Mapper, error) {
	decoder := xml.NewDecoder(r)
	for {
		tok, err := decoder.Token()
		if err != nil {
			return nil, err
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		if start.Name.Local != "mapper" {
			return nil, fmt.Errorf("expected root element 'mapper', got %q", start.Name.Local)
		}
		return p.parseMapperElement(decoder, start)
	}
}

// parseMapperElement parses the body of a <mapper> element, whose start tag
// has already been consumed, into a *Mapper.
func (p *XMLMappersElementParser) parseMapperElement(decoder *xml.Decoder, start xml.StartElement) (*Mapper, error) {
	namespace, ok := attrValue(start, "namespace")
	if !ok || namespace == "" {
		return nil, parseErr("", start, "namespace attribute is required")
	}
	mapper := &Mapper{namespace: namespace}
	for _, a := range start.Attr {
		if a.Name.Local == "namespace" {
			continue
		}
		mapper.setAttribute(a.Name.Local, a.Value)
	}
	for {
		tok, err := decoder.Token()
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if err := p.parseMapperChild(mapper, namespace, decoder, t); err != nil {
				return nil, err
			}
		case xml.EndElement:
			if t.Name.Local == "mapper" {
				return mapper, nil
			}
		}
	}
}

func (p *XMLMappersElementParser) parseMapperChild(mapper *Mapper, namespace string, decoder *xml.Decoder, start xml.StartElement) error {
	switch start.Name.Local {
	case "select":
		return parseStatement(mapper, namespace, Select, decoder, start)
	case "insert":
		return parseStatement(mapper, namespace, Insert, decoder, start)
	case "update":
		return parseStatement(mapper, namespace, Update, decoder, start)
	case "delete":
		return parseStatement(mapper, namespace, Delete, decoder, start)
	case "sql":
		return parseSQLFragment(mapper, namespace, decoder, start)
	default:
		return decoder.Skip()
	}
}

// parseStatement parses a <select>/<insert>/<update>/<delete> element into
// an xmlSQLStatement and registers it under its id in mapper.
func parseStatement(mapper *Mapper, namespace string, action Action, decoder *xml.Decoder, start xml.StartElement) error {
	id, ok := attrValue(start, "id")
	if !ok || id == "" {
		return parseErr(namespace, start, "id is required")
	}
	children, binds, err := parseChildren(mapper, namespace, decoder)
	if err != nil {
		return wrapParseErr(namespace, start, err)
	}

	stmt := &xmlSQLStatement{mapper: mapper, action: action, id: id}
	for _, a := range start.Attr {
		if a.Name.Local == "id" {
			continue
		}
		stmt.setAttribute(a.Name.Local, a.Value)
	}
	if len(binds) > 0 {
		stmt.Nodes = node.NodeGroup{&node.SQLNode{ID: id, Nodes: children, BindNodes: binds}}
	} else {
		stmt.Nodes = children
	}

	if mapper.statements == nil {
		mapper.statements = make(map[string]*xmlSQLStatement)
	}
	if _, exists := mapper.statements[id]; exists {
		return parseErr(namespace, start, fmt.Sprintf("statement %q already exists", id))
	}
	mapper.statements[id] = stmt
	return nil
}

// parseSQLFragment parses a <sql id="..."> reusable fragment and registers
// it in mapper, making it resolvable through <include refid="...">.
func parseSQLFragment(mapper *Mapper, namespace string, decoder *xml.Decoder, start xml.StartElement) error {
	id, ok := attrValue(start, "id")
	if !ok || id == "" {
		return parseErr(namespace, start, "id is required")
	}
	children, binds, err := parseChildren(mapper, namespace, decoder)
	if err != nil {
		return wrapParseErr(namespace, start, err)
	}
	if err := mapper.setSqlNode(&node.SQLNode{ID: id, Nodes: children, BindNodes: binds}); err != nil {
		return wrapParseErr(namespace, start, err)
	}
	return nil
}

// parseChildren reads decoder until the end element matching the element
// whose start tag the caller already consumed, collecting plain body Nodes
// and any child <bind> variables separately.
func parseChildren(mapper *Mapper, namespace string, decoder *xml.Decoder) ([]node.Node, node.BindNodeGroup, error) {
	var nodes []node.Node
	var binds node.BindNodeGroup
	for {
		tok, err := decoder.Token()
		if err != nil {
			return nil, nil, err
		}
		switch t := tok.(type) {
		case xml.CharData:
			text := string(t)
			if strings.TrimSpace(text) == "" {
				continue
			}
			nodes = append(nodes, node.NewTextNode(text))
		case xml.StartElement:
			n, bind, err := parseNodeElement(mapper, namespace, decoder, t)
			if err != nil {
				return nil, nil, err
			}
			switch {
			case bind != nil:
				binds = append(binds, bind)
			case n != nil:
				nodes = append(nodes, n)
			}
		case xml.EndElement:
			return nodes, binds, nil
		}
	}
}

// parseNodeElement parses a single dynamic SQL element and returns either a
// Node (for everything but <bind>) or a *node.BindNode (for <bind>).
func parseNodeElement(mapper *Mapper, namespace string, decoder *xml.Decoder, start xml.StartElement) (node.Node, *node.BindNode, error) {
	switch start.Name.Local {
	case "if", "when":
		test, ok := attrValue(start, "test")
		if !ok || test == "" {
			return nil, nil, parseErr(namespace, start, "test attribute is required")
		}
		cond := &node.ConditionNode{}
		if err := cond.Parse(test); err != nil {
			return nil, nil, wrapParseErr(namespace, start, err)
		}
		children, binds, err := parseChildren(mapper, namespace, decoder)
		if err != nil {
			return nil, nil, wrapParseErr(namespace, start, err)
		}
		cond.Nodes = children
		cond.BindNodes = binds
		return cond, nil, nil

	case "choose":
		return parseChoose(mapper, namespace, decoder, start)

	case "otherwise":
		children, binds, err := parseChildren(mapper, namespace, decoder)
		if err != nil {
			return nil, nil, wrapParseErr(namespace, start, err)
		}
		return &node.OtherwiseNode{Nodes: children, BindNodes: binds}, nil, nil

	case "trim":
		prefixOverrides := splitOverrides(attrValueOr(start, "prefixOverrides", ""))
		suffixOverrides := splitOverrides(attrValueOr(start, "suffixOverrides", ""))
		children, binds, err := parseChildren(mapper, namespace, decoder)
		if err != nil {
			return nil, nil, wrapParseErr(namespace, start, err)
		}
		return &node.TrimNode{
			Nodes:           children,
			Prefix:          attrValueOr(start, "prefix", ""),
			PrefixOverrides: prefixOverrides,
			Suffix:          attrValueOr(start, "suffix", ""),
			SuffixOverrides: suffixOverrides,
			BindNodes:       binds,
		}, nil, nil

	case "where":
		children, binds, err := parseChildren(mapper, namespace, decoder)
		if err != nil {
			return nil, nil, wrapParseErr(namespace, start, err)
		}
		return &node.WhereNode{Nodes: children, BindNodes: binds}, nil, nil

	case "set":
		children, binds, err := parseChildren(mapper, namespace, decoder)
		if err != nil {
			return nil, nil, wrapParseErr(namespace, start, err)
		}
		return &node.SetNode{Nodes: children, BindNodes: binds}, nil, nil

	case "foreach":
		collection, ok := attrValue(start, "collection")
		if !ok || collection == "" {
			return nil, nil, parseErr(namespace, start, "collection attribute is required")
		}
		item, ok := attrValue(start, "item")
		if !ok || item == "" {
			return nil, nil, parseErr(namespace, start, "item attribute is required")
		}
		children, binds, err := parseChildren(mapper, namespace, decoder)
		if err != nil {
			return nil, nil, wrapParseErr(namespace, start, err)
		}
		return &node.ForeachNode{
			Collection: collection,
			Nodes:      children,
			Item:       item,
			Index:      attrValueOr(start, "index", ""),
			Open:       attrValueOr(start, "open", ""),
			Close:      attrValueOr(start, "close", ""),
			Separator:  attrValueOr(start, "separator", ""),
			BindNodes:  binds,
		}, nil, nil

	case "bind":
		name, ok := attrValue(start, "name")
		if !ok || name == "" {
			return nil, nil, parseErr(namespace, start, "name attribute is required")
		}
		value, ok := attrValue(start, "value")
		if !ok || value == "" {
			return nil, nil, parseErr(namespace, start, "value attribute is required")
		}
		bn := &node.BindNode{Name: name}
		if err := bn.Parse(value); err != nil {
			return nil, nil, wrapParseErr(namespace, start, err)
		}
		if err := decoder.Skip(); err != nil {
			return nil, nil, err
		}
		return nil, bn, nil

	case "include":
		refid, ok := attrValue(start, "refid")
		if !ok || refid == "" {
			return nil, nil, parseErr(namespace, start, "refid attribute is required")
		}
		if err := decoder.Skip(); err != nil {
			return nil, nil, err
		}
		return node.NewIncludeNode(nil, mapper, refid), nil, nil

	default:
		if err := decoder.Skip(); err != nil {
			return nil, nil, err
		}
		return nil, nil, nil
	}
}

// parseChoose parses a <choose> element's <when>/<otherwise>/<bind> children.
func parseChoose(mapper *Mapper, namespace string, decoder *xml.Decoder, start xml.StartElement) (node.Node, *node.BindNode, error) {
	var whens []node.Node
	var otherwise node.Node
	var binds node.BindNodeGroup
	for {
		tok, err := decoder.Token()
		if err != nil {
			return nil, nil, err
		}
		switch t := tok.(type) {
		case xml.CharData:
			continue
		case xml.StartElement:
			switch t.Name.Local {
			case "when":
				n, _, err := parseNodeElement(mapper, namespace, decoder, t)
				if err != nil {
					return nil, nil, err
				}
				whens = append(whens, n)
			case "otherwise":
				n, _, err := parseNodeElement(mapper, namespace, decoder, t)
				if err != nil {
					return nil, nil, err
				}
				otherwise = n
			case "bind":
				_, bn, err := parseNodeElement(mapper, namespace, decoder, t)
				if err != nil {
					return nil, nil, err
				}
				binds = append(binds, bn)
			default:
				if err := decoder.Skip(); err != nil {
					return nil, nil, err
				}
			}
		case xml.EndElement:
			return &node.ChooseNode{WhenNodes: whens, OtherwiseNode: otherwise, BindNodes: binds}, nil, nil
		}
	}
}

// fsRoot roots an fs.FS at basedir, so relative resource paths in a
// configuration file resolve against the file's own directory.
type fsRoot struct {
	fsys    fs.FS
	basedir string
}

// newFsRoot returns fsys unchanged when basedir is empty or ".", otherwise
// wraps it to join basedir onto every Open call.
func newFsRoot(fsys fs.FS, basedir string) fs.FS {
	if basedir == "" || basedir == "." {
		return fsys
	}
	return &fsRoot{fsys: fsys, basedir: basedir}
}

// Open implements fs.FS.
func (r *fsRoot) Open(name string) (fs.File, error) {
	return r.fsys.Open(unixpath.Join(r.basedir, name))
}
