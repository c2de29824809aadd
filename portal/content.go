package portal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/edgeadmin/edgeadmin/log"
	"github.com/hashicorp/hcl/v2/hclsimple"
	"github.com/tidwall/gjson"
)

const (
	DefaultContentFile = "portalcontent.json"

	forumsVocabulary   = "forums"
	nodesPageSize      = "30"
	defaultForumWeight = 10
	faqWeightStep      = 10
)

// Content is the forum and FAQ material loaded into a portal.
type Content struct {
	Forums []Forum `json:"forums" hcl:"forum,block"`
	Faqs   []Post  `json:"faqs" hcl:"faq,block"`
}

type Forum struct {
	Name        string `json:"name" hcl:"name,label"`
	Description string `json:"description" hcl:"description,optional"`
	Weight      int    `json:"weight" hcl:"weight,optional"`
	Posts       []Post `json:"posts" hcl:"post,block"`
}

type Post struct {
	Title string `json:"title" hcl:"title,label"`
	Text  string `json:"text" hcl:"text"`
}

// LoadContent reads a JSON content file, or an HCL one when the name ends with .hcl:
//
//	forum "General" {
//	  description = "Anything goes"
//	  post "Welcome" {
//	    text = "<p>Hello</p>"
//	  }
//	}
//	faq "How do I get a key?" {
//	  text = "Register an app."
//	}
func LoadContent(path string) (*Content, error) {
	var content Content
	if strings.EqualFold(filepath.Ext(path), ".hcl") {
		if err := hclsimple.DecodeFile(path, nil, &content); err != nil {
			return nil, fmt.Errorf("portal: failed to parse %s: %w", path, err)
		}
	} else {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("portal: the content file %s cannot be read: %w", path, err)
		}
		if err = json.Unmarshal(data, &content); err != nil {
			return nil, fmt.Errorf("portal: failed to parse %s: %w", path, err)
		}
	}
	if len(content.Forums) == 0 && len(content.Faqs) == 0 {
		return nil, fmt.Errorf("portal: there is no content in %s", path)
	}
	return &content, nil
}

type Node struct {
	Nid   string
	Title string
	Uri   string
}

type Term struct {
	Tid  string
	Name string
}

type body struct {
	Und []bodyValue `json:"und"`
}

type bodyValue struct {
	Value   string `json:"value"`
	Summary string `json:"summary"`
	Format  string `json:"format"`
}

func htmlBody(text string) body {
	return body{Und: []bodyValue{{Value: text, Format: "full_html"}}}
}

type forumNode struct {
	Type           string            `json:"type"`
	Title          string            `json:"title"`
	Language       string            `json:"language"`
	TaxonomyForums map[string]string `json:"taxonomy_forums"`
	Body           body              `json:"body"`
}

type faqNode struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Language string `json:"language"`
	Status   int    `json:"status"`
	Comment  int    `json:"comment"`
	Promote  int    `json:"promote"`
	Weight   int    `json:"weight"`
	Body     body   `json:"body"`
}

type termRequest struct {
	Vid         string  `json:"vid"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Format      *string `json:"format"`
	Weight      int     `json:"weight"`
}

func (c *Client) ListNodes(ctx context.Context, nodeType string) ([]Node, error) {
	data, err := c.do(ctx, http.MethodGet, c.url("node", "pagesize", nodesPageSize, "parameters[type]", nodeType), nil)
	if err != nil {
		return nil, err
	}
	res, err := parseArray(data, nodeType+" nodes")
	if err != nil {
		return nil, err
	}
	nodes := make([]Node, 0)
	res.ForEach(func(_, n gjson.Result) bool {
		nodes = append(nodes, Node{Nid: n.Get("nid").String(), Title: n.Get("title").String(), Uri: n.Get("uri").String()})
		return true
	})
	return nodes, nil
}

func (c *Client) DeleteNode(ctx context.Context, node Node) error {
	u := node.Uri
	if u == "" {
		u = c.url("node/" + node.Nid)
	}
	_, err := c.do(ctx, http.MethodDelete, u, nil)
	return err
}

// ForumsVocabulary returns the vid of the forums vocabulary.
func (c *Client) ForumsVocabulary(ctx context.Context) (string, error) {
	data, err := c.do(ctx, http.MethodGet, c.url("taxonomy_vocabulary", "pagesize", nodesPageSize, "parameters[machine_name]", forumsVocabulary), nil)
	if err != nil {
		return "", err
	}
	res, err := parseArray(data, "vocabularies")
	if err != nil {
		return "", err
	}
	vid := res.Get("0.vid").String()
	if len(res.Array()) != 1 || vid == "" {
		return "", errors.New("portal: the forums vocabulary cannot be found")
	}
	return vid, nil
}

func (c *Client) ListTerms(ctx context.Context, query ...string) ([]Term, error) {
	data, err := c.do(ctx, http.MethodGet, c.url("taxonomy_term", query...), nil)
	if err != nil {
		return nil, err
	}
	res, err := parseArray(data, "terms")
	if err != nil {
		return nil, err
	}
	terms := make([]Term, 0)
	res.ForEach(func(_, t gjson.Result) bool {
		terms = append(terms, Term{Tid: t.Get("tid").String(), Name: t.Get("name").String()})
		return true
	})
	return terms, nil
}

func (c *Client) DeleteTerm(ctx context.Context, tid string) error {
	_, err := c.do(ctx, http.MethodDelete, c.url("taxonomy_term/"+tid), nil)
	return err
}

// CreateForum adds the forum term and returns its tid.
func (c *Client) CreateForum(ctx context.Context, vid string, forum Forum) (string, error) {
	weight := forum.Weight
	if weight == 0 {
		weight = defaultForumWeight
	}
	_, err := c.sendJSON(ctx, http.MethodPost, c.url("taxonomy_term"), termRequest{
		Vid:         vid,
		Name:        forum.Name,
		Description: forum.Description,
		Weight:      weight,
	})
	if err != nil {
		return "", err
	}
	terms, err := c.ListTerms(ctx, "parameters[name]", forum.Name)
	if err != nil {
		return "", err
	}
	if len(terms) != 1 || terms[0].Tid == "" {
		return "", fmt.Errorf("portal: cannot find the term of the forum %s", forum.Name)
	}
	return terms[0].Tid, nil
}

func (c *Client) CreateTopic(ctx context.Context, tid string, post Post) error {
	_, err := c.sendJSON(ctx, http.MethodPost, c.url("node"), forumNode{
		Type:           "forum",
		Title:          post.Title,
		Language:       "und",
		TaxonomyForums: map[string]string{"und": tid},
		Body:           htmlBody(post.Text),
	})
	return err
}

func (c *Client) CreateFaq(ctx context.Context, post Post, weight int) error {
	_, err := c.sendJSON(ctx, http.MethodPost, c.url("node"), faqNode{
		Type:     "faq",
		Title:    post.Title,
		Language: "und",
		Status:   1,
		Comment:  1,
		Promote:  1,
		Weight:   weight,
		Body:     htmlBody(post.Text),
	})
	return err
}

// Contrive replaces the forums, their topics and the FAQs of the portal with content.
func Contrive(ctx context.Context, c *Client, content *Content, logger log.Logger) error {
	if err := deleteNodes(ctx, c, "forum", logger); err != nil {
		return err
	}
	vid, err := c.ForumsVocabulary(ctx)
	if err != nil {
		return err
	}
	terms, err := c.ListTerms(ctx, "parameters[vid]", vid)
	if err != nil {
		return err
	}
	for _, t := range terms {
		logger.Infof("delete forum/term: %s", t.Name)
		if err = c.DeleteTerm(ctx, t.Tid); err != nil {
			return err
		}
	}
	for _, forum := range content.Forums {
		tid, err := c.CreateForum(ctx, vid, forum)
		if err != nil {
			return err
		}
		logger.Infof("created forum(term): %s", forum.Name)
		for _, post := range forum.Posts {
			logger.Infof("  create topic: %s", post.Title)
			if err = c.CreateTopic(ctx, tid, post); err != nil {
				return err
			}
		}
	}
	if err = deleteNodes(ctx, c, "faq", logger); err != nil {
		return err
	}
	for i, faq := range content.Faqs {
		logger.Infof("  create faq: %s", faq.Title)
		if err = c.CreateFaq(ctx, faq, (i+1)*faqWeightStep); err != nil {
			return err
		}
	}
	return nil
}

func deleteNodes(ctx context.Context, c *Client, nodeType string, logger log.Logger) error {
	nodes, err := c.ListNodes(ctx, nodeType)
	if err != nil {
		return err
	}
	for _, n := range nodes {
		logger.Infof("delete node: %s", n.Title)
		if err = c.DeleteNode(ctx, n); err != nil {
			return err
		}
	}
	if len(nodes) == 0 {
		logger.Infof("no %s nodes to delete...", nodeType)
	}
	return nil
}
