// Copyright (c) 2026 Bloomify. All rights reserved.

package chat

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// # Ordered Documents

// member is one key of a JSON object, kept in the order it was sent.
type member struct {
	key   string
	value any
}

// document is a JSON object whose member order survives a round trip.
//
// Values are document, []any, string, json.Number, bool or nil.
type document []member

var errNotObject = errors.New("request must be a JSON object")

// parseDocument decodes raw into a document. The top level must be an object.
func parseDocument(raw []byte) (document, error) {
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()

	value, err := decodeValue(decoder)
	if err != nil {
		return nil, err
	}
	if _, err := decoder.Token(); err != io.EOF {
		return nil, errors.New("trailing data after request object")
	}

	doc, ok := value.(document)
	if !ok {
		return nil, errNotObject
	}
	return doc, nil
}

func decodeValue(decoder *json.Decoder) (any, error) {
	token, err := decoder.Token()
	if err != nil {
		return nil, err
	}

	delim, ok := token.(json.Delim)
	if !ok {
		return token, nil
	}

	switch delim {
	case '{':
		doc := document{}
		for decoder.More() {
			keyToken, err := decoder.Token()
			if err != nil {
				return nil, err
			}
			value, err := decodeValue(decoder)
			if err != nil {
				return nil, err
			}
			doc = doc.set(keyToken.(string), value)
		}
		if _, err := decoder.Token(); err != nil {
			return nil, err
		}
		return doc, nil

	case '[':
		items := []any{}
		for decoder.More() {
			value, err := decodeValue(decoder)
			if err != nil {
				return nil, err
			}
			items = append(items, value)
		}
		if _, err := decoder.Token(); err != nil {
			return nil, err
		}
		return items, nil
	}

	return nil, fmt.Errorf("unexpected delimiter %q", delim)
}

// get returns the value stored under key.
func (doc document) get(key string) (any, bool) {
	for _, m := range doc {
		if m.key == key {
			return m.value, true
		}
	}
	return nil, false
}

// set replaces key in place or appends it. A repeated key keeps its first position.
func (doc document) set(key string, value any) document {
	for i := range doc {
		if doc[i].key == key {
			doc[i].value = value
			return doc
		}
	}
	return append(doc, member{key: key, value: value})
}

// withDefault sets key to value when it is missing, null or blank.
func (doc document) withDefault(key, value string) document {
	current, _ := doc.get(key)
	switch current := current.(type) {
	case nil:
		return doc.set(key, value)
	case string:
		if strings.TrimSpace(current) == "" {
			return doc.set(key, value)
		}
	}
	return doc
}

// MarshalJSON writes the members in their original order.
func (doc document) MarshalJSON() ([]byte, error) {
	var buffer bytes.Buffer
	buffer.WriteByte('{')
	for i, m := range doc {
		if i > 0 {
			buffer.WriteByte(',')
		}
		key, err := json.Marshal(m.key)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(m.value)
		if err != nil {
			return nil, err
		}
		buffer.Write(key)
		buffer.WriteByte(':')
		buffer.Write(value)
	}
	buffer.WriteByte('}')
	return buffer.Bytes(), nil
}

// # Transcript

const indentUnit = "  "

/*
renderTranscript turns a request into the text stored as the message input.

	question: "Define entropy"      ->  Question: Define entropy
	marking_scheme: {marks: 10}     ->  Marking Scheme:
	                                      Marks: 10
	syllabus: [{unit: 1}]           ->  Syllabus
	                                        Unit: 1

Objects indent their members one level; list items sit two levels deeper than
the list's own key.
*/
func renderTranscript(doc document) string {
	// Casers hold state, so each render gets its own.
	var builder strings.Builder
	writeMembers(&builder, cases.Title(language.English, cases.NoLower), doc, 0)
	return builder.String()
}

func writeMembers(builder *strings.Builder, caser cases.Caser, doc document, level int) {
	indent := strings.Repeat(indentUnit, level)

	for _, m := range doc {
		label := caser.String(strings.ReplaceAll(m.key, "_", " "))

		switch value := m.value.(type) {
		case []any:
			builder.WriteString(indent + label + "\n")
			for _, item := range value {
				writeItem(builder, caser, item, level+2)
			}
		case document:
			builder.WriteString(indent + label + ":\n")
			writeMembers(builder, caser, value, level+1)
		default:
			builder.WriteString(indent + label + ": " + scalarText(value) + "\n")
		}
	}
}

// writeItem renders one list element.
func writeItem(builder *strings.Builder, caser cases.Caser, item any, level int) {
	switch value := item.(type) {
	case document:
		writeMembers(builder, caser, value, level)
	case []any:
		for _, nested := range value {
			writeItem(builder, caser, nested, level+2)
		}
	default:
		builder.WriteString(strings.Repeat(indentUnit, level) + scalarText(value) + "\n")
	}
}

func scalarText(value any) string {
	switch v := value.(type) {
	case nil:
		return "null"
	case string:
		return v
	case json.Number:
		return v.String()
	case bool:
		if v {
			return "true"
		}
		return "false"
	default:
		return fmt.Sprint(v)
	}
}
