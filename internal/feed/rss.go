package feed

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/xml"
	"fmt"
	"strconv"
	"time"
)

const (
	itunesNamespace = "http://www.itunes.com/dtds/podcast-1.0.dtd"
	atomNamespace   = "http://www.w3.org/2005/Atom"
)

// Channel carries the feed-level podcast metadata from configuration.
type Channel struct {
	Title       string
	Description string
	Author      string
	Language    string
	ImageURL    string
	FeedURL     string
}

type rssRoot struct {
	XMLName  xml.Name   `xml:"rss"`
	Version  string     `xml:"version,attr"`
	ITunesNS string     `xml:"xmlns:itunes,attr"`
	AtomNS   string     `xml:"xmlns:atom,attr"`
	Channel  rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title       string     `xml:"title"`
	Description string     `xml:"description"`
	Language    string     `xml:"language"`
	Generator   string     `xml:"generator"`
	Author      string     `xml:"itunes:author"`
	Explicit    string     `xml:"itunes:explicit"`
	Image       *rssImage  `xml:"itunes:image,omitempty"`
	AtomLink    atomLink   `xml:"atom:link"`
	Items       []rssItem  `xml:"item"`
}

type rssImage struct {
	Href string `xml:"href,attr"`
}

type atomLink struct {
	Href string `xml:"href,attr"`
	Rel  string `xml:"rel,attr"`
	Type string `xml:"type,attr"`
}

type rssItem struct {
	Title       string       `xml:"title"`
	Description string       `xml:"description"`
	PubDate     string       `xml:"pubDate"`
	GUID        rssGUID      `xml:"guid"`
	Enclosure   rssEnclosure `xml:"enclosure"`
	Duration    string       `xml:"itunes:duration"`
}

type rssGUID struct {
	IsPermaLink string `xml:"isPermaLink,attr"`
	Value       string `xml:",chardata"`
}

type rssEnclosure struct {
	URL    string `xml:"url,attr"`
	Length int64  `xml:"length,attr"`
	Type   string `xml:"type,attr"`
}

// RenderRSS serializes the document as a podcast RSS 2.0 feed with itunes
// and atom extensions. Entries keep the document's newest-first order.
func RenderRSS(channel Channel, doc Document) ([]byte, error) {
	root := rssRoot{
		Version:  "2.0",
		ITunesNS: itunesNamespace,
		AtomNS:   atomNamespace,
		Channel: rssChannel{
			Title:       channel.Title,
			Description: channel.Description,
			Language:    channel.Language,
			Generator:   "morsel",
			Author:      channel.Author,
			Explicit:    "false",
			AtomLink: atomLink{
				Href: channel.FeedURL,
				Rel:  "self",
				Type: "application/rss+xml",
			},
		},
	}
	if channel.ImageURL != "" {
		root.Channel.Image = &rssImage{Href: channel.ImageURL}
	}

	for _, episode := range doc.Episodes {
		pubDate := episode.Date
		if !episode.PublishedAt.IsZero() {
			pubDate = episode.PublishedAt
		}
		root.Channel.Items = append(root.Channel.Items, rssItem{
			Title:       episode.Title,
			Description: episode.Summary,
			PubDate:     pubDate.UTC().Format(time.RFC1123Z),
			GUID: rssGUID{
				IsPermaLink: "false",
				Value:       EpisodeGUID(episode.AudioURL),
			},
			Enclosure: rssEnclosure{
				URL:    episode.AudioURL,
				Length: episode.FileSizeBytes,
				Type:   "audio/mpeg",
			},
			Duration: strconv.FormatInt(episode.DurationSeconds, 10),
		})
	}

	body, err := xml.MarshalIndent(root, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal rss: %w", err)
	}

	return append([]byte(xml.Header), body...), nil
}

// EpisodeGUID derives the stable per-episode identifier: the first 16 hex
// characters of the SHA-256 of the audio URL.
func EpisodeGUID(audioURL string) string {
	sum := sha256.Sum256([]byte(audioURL))
	return hex.EncodeToString(sum[:])[:16]
}
