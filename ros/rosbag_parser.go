// Package ros bridges the waypoint updater and ROS: message types as rendered by gobag,
// conversions to and from the updater's types, rosbag replay and a JSON-lines output sink.
package ros

import (
	"encoding/json"
	"io"
	"os"
	"strings"

	"github.com/edaniels/gobag/rosbag"
	"github.com/pkg/errors"
	"go.viam.com/utils"
)

// ReadBag reads the contents of a rosbag into a gobag data structure.
func ReadBag(filename string) (*rosbag.RosBag, error) {
	//nolint:gosec
	f, err := os.Open(filename)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to open input file")
	}
	defer utils.UncheckedErrorFunc(f.Close)

	rb := rosbag.NewRosBag()
	if err := rb.Read(f); err != nil {
		return nil, errors.Wrapf(err, "unable to create ros bag, error")
	}
	return rb, nil
}

// TopicKey returns the key gobag files a topic's JSON under: lower case, without the leading
// slash, remaining slashes replaced by underscores.
func TopicKey(topic string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimPrefix(topic, "/"), "/", "_"))
}

// ParseTopics renders every message on the given topics to JSON inside rb. gobag appends to its
// buffers on every parse, so call this once per bag.
func ParseTopics(rb *rosbag.RosBag, topics ...string) error {
	wanted := make(map[string]bool, len(topics))
	for _, topic := range topics {
		wanted[topic] = true
	}
	if err := rb.ParseTopicsToJSON(
		"",
		func(int64) bool { return true },
		func(t string) bool { return wanted[t] },
		true,
	); err != nil {
		return errors.Wrapf(err, "error while parsing bag to JSON")
	}
	return nil
}

// MessagesForTopic decodes the messages ParseTopics rendered for topic. A topic with no messages
// yields an empty slice.
func MessagesForTopic[T any](rb *rosbag.RosBag, topic string) ([]Message[T], error) {
	msgs, ok := rb.TopicsAsJSON[TopicKey(topic)]
	if !ok || msgs == nil {
		return nil, nil
	}
	out, err := DecodeLines[T](msgs)
	if err != nil {
		return nil, errors.Wrapf(err, "decoding topic %s", topic)
	}
	return out, nil
}

// A LineReader yields newline-terminated records. bufio.Reader and gobag's buffers satisfy it.
type LineReader interface {
	ReadBytes(delim byte) ([]byte, error)
}

// DecodeLines decodes one Message per line until EOF. Blank lines are skipped.
func DecodeLines[T any](r LineReader) ([]Message[T], error) {
	var all []Message[T]
	for {
		data, err := r.ReadBytes('\n')
		if len(strings.TrimSpace(string(data))) > 0 {
			var message Message[T]
			if jsonErr := json.Unmarshal(data, &message); jsonErr != nil {
				return nil, errors.Wrapf(jsonErr, "message %d", len(all))
			}
			all = append(all, message)
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return all, nil
			}
			return nil, err
		}
	}
}
