package compiler

import (
	"bytes"
	"encoding/xml"

	"call-router/internal/common/errors"
	"call-router/internal/models"
)

// Rendering is the only place artifacts meet the switch's textual
// form. One XML document per artifact kind, artifacts in compile
// order, so rendering the same artifact list twice is byte-identical.

type xmlAction struct {
	XMLName     xml.Name `xml:"action"`
	Application string   `xml:"application,attr"`
	Data        string   `xml:"data,attr,omitempty"`
}

type xmlAntiAction struct {
	XMLName     xml.Name `xml:"anti-action"`
	Application string   `xml:"application,attr"`
	Data        string   `xml:"data,attr,omitempty"`
}

type xmlCondition struct {
	XMLName    xml.Name        `xml:"condition"`
	Field      string          `xml:"field,attr,omitempty"`
	Expression string          `xml:"expression,attr,omitempty"`
	Actions    []xmlAction     `xml:"action"`
	AntiAction []xmlAntiAction `xml:"anti-action"`
}

type xmlExtension struct {
	XMLName   xml.Name     `xml:"extension"`
	Name      string       `xml:"name,attr"`
	Context   string       `xml:"context,attr,omitempty"`
	Enabled   string       `xml:"enabled,attr"`
	Condition xmlCondition `xml:"condition"`
}

type xmlInclude struct {
	XMLName    xml.Name       `xml:"include"`
	Extensions []xmlExtension `xml:"extension"`
}

// Render serializes artifacts into one XML document per kind.
// Artifact kinds with no artifacts produce no file.
func Render(artifacts []models.CompiledArtifact) (map[models.ArtifactKind][]byte, error) {
	grouped := make(map[models.ArtifactKind][]models.CompiledArtifact)
	for _, artifact := range artifacts {
		grouped[artifact.Kind] = append(grouped[artifact.Kind], artifact)
	}

	files := make(map[models.ArtifactKind][]byte, len(grouped))
	for kind, group := range grouped {
		data, err := renderKind(group)
		if err != nil {
			return nil, err
		}
		files[kind] = data
	}
	return files, nil
}

func renderKind(artifacts []models.CompiledArtifact) ([]byte, error) {
	include := xmlInclude{Extensions: make([]xmlExtension, 0, len(artifacts))}

	for _, artifact := range artifacts {
		condition := xmlCondition{
			Actions: make([]xmlAction, 0, len(artifact.Actions)),
		}
		if artifact.MatchCondition != "" {
			condition.Field = "destination_number"
			condition.Expression = artifact.MatchCondition
		}
		for _, action := range artifact.Actions {
			condition.Actions = append(condition.Actions, xmlAction{
				Application: action.App,
				Data:        action.Data,
			})
		}
		if artifact.Fallback != nil {
			condition.AntiAction = []xmlAntiAction{{
				Application: artifact.Fallback.App,
				Data:        artifact.Fallback.Data,
			}}
		}

		enabled := "false"
		if artifact.Enabled {
			enabled = "true"
		}
		include.Extensions = append(include.Extensions, xmlExtension{
			Name:      artifact.Name,
			Context:   artifact.Context,
			Enabled:   enabled,
			Condition: condition,
		})
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(include); err != nil {
		return nil, errors.InternalError("failed to render artifact XML", err)
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// FileName maps an artifact kind to its on-disk configuration file.
func FileName(kind models.ArtifactKind) string {
	return string(kind) + ".xml"
}
