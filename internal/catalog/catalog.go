// Package catalog provides technology catalog lookups for coverage scoring.
// The catalog is an external collaborator at the module boundary; this package
// ships a static built-in seed plus a noop fallback so scoring degrades
// gracefully when no catalog is configured.
package catalog

import "strings"

// Entry is one known technology.
type Entry struct {
	Name      string   `json:"name"`
	Category  string   `json:"category"`
	Ecosystem string   `json:"ecosystem"`
	Aliases   []string `json:"aliases,omitempty"`
}

// Lookup resolves a technology name to a catalog entry.
type Lookup interface {
	Lookup(name string) (Entry, bool)
}

// Noop is a catalog that knows nothing. Scoring falls back to the default
// coverage score when this is used.
type Noop struct{}

// Lookup always misses.
func (Noop) Lookup(string) (Entry, bool) { return Entry{}, false }

// Static is an in-memory catalog keyed by normalized technology name.
type Static struct {
	entries map[string]Entry
}

// NewStatic builds the built-in technology catalog.
func NewStatic() *Static {
	s := &Static{entries: make(map[string]Entry)}
	for _, e := range seed {
		s.add(e)
	}
	return s
}

func (s *Static) add(e Entry) {
	s.entries[Normalize(e.Name)] = e
	for _, a := range e.Aliases {
		s.entries[Normalize(a)] = e
	}
}

// Lookup resolves name against the catalog, matching on normalized form.
func (s *Static) Lookup(name string) (Entry, bool) {
	e, ok := s.entries[Normalize(name)]
	return e, ok
}

// Len returns the number of distinct normalized keys.
func (s *Static) Len() int { return len(s.entries) }

// Normalize lowercases and strips separators so "PostgreSQL", "postgres-ql"
// and "Postgre SQL" all resolve to the same key.
func Normalize(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	var b strings.Builder
	for _, r := range name {
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

var seed = []Entry{
	{Name: "FastAPI", Category: "web_framework", Ecosystem: "open_source"},
	{Name: "Django", Category: "web_framework", Ecosystem: "open_source"},
	{Name: "Flask", Category: "web_framework", Ecosystem: "open_source"},
	{Name: "Express", Category: "web_framework", Ecosystem: "open_source", Aliases: []string{"expressjs", "express.js"}},
	{Name: "React", Category: "frontend", Ecosystem: "open_source", Aliases: []string{"reactjs"}},
	{Name: "Vue", Category: "frontend", Ecosystem: "open_source", Aliases: []string{"vuejs", "vue.js"}},
	{Name: "Angular", Category: "frontend", Ecosystem: "open_source"},
	{Name: "PostgreSQL", Category: "database", Ecosystem: "open_source", Aliases: []string{"postgres"}},
	{Name: "MySQL", Category: "database", Ecosystem: "open_source"},
	{Name: "MongoDB", Category: "database", Ecosystem: "open_source", Aliases: []string{"mongo"}},
	{Name: "Redis", Category: "cache", Ecosystem: "open_source"},
	{Name: "Memcached", Category: "cache", Ecosystem: "open_source"},
	{Name: "Kafka", Category: "messaging", Ecosystem: "open_source", Aliases: []string{"apache kafka"}},
	{Name: "RabbitMQ", Category: "messaging", Ecosystem: "open_source"},
	{Name: "Elasticsearch", Category: "search", Ecosystem: "open_source"},
	{Name: "Docker", Category: "container", Ecosystem: "open_source"},
	{Name: "Kubernetes", Category: "orchestration", Ecosystem: "open_source", Aliases: []string{"k8s"}},
	{Name: "Terraform", Category: "infrastructure", Ecosystem: "open_source"},
	{Name: "Nginx", Category: "web_server", Ecosystem: "open_source"},
	{Name: "GraphQL", Category: "api", Ecosystem: "open_source"},
	{Name: "Prometheus", Category: "monitoring", Ecosystem: "open_source"},
	{Name: "Grafana", Category: "monitoring", Ecosystem: "open_source"},
	{Name: "AWS Lambda", Category: "serverless", Ecosystem: "aws", Aliases: []string{"lambda"}},
	{Name: "Amazon S3", Category: "storage", Ecosystem: "aws", Aliases: []string{"s3", "aws s3"}},
	{Name: "Amazon EC2", Category: "compute", Ecosystem: "aws", Aliases: []string{"ec2", "aws ec2"}},
	{Name: "Amazon RDS", Category: "database", Ecosystem: "aws", Aliases: []string{"rds", "aws rds"}},
	{Name: "DynamoDB", Category: "database", Ecosystem: "aws", Aliases: []string{"amazon dynamodb"}},
	{Name: "Amazon SQS", Category: "messaging", Ecosystem: "aws", Aliases: []string{"sqs"}},
	{Name: "Amazon Bedrock", Category: "ai", Ecosystem: "aws", Aliases: []string{"bedrock"}},
	{Name: "Azure Functions", Category: "serverless", Ecosystem: "azure"},
	{Name: "Azure Blob Storage", Category: "storage", Ecosystem: "azure"},
	{Name: "Cosmos DB", Category: "database", Ecosystem: "azure", Aliases: []string{"azure cosmos db"}},
	{Name: "Azure OpenAI", Category: "ai", Ecosystem: "azure"},
	{Name: "Google Cloud Storage", Category: "storage", Ecosystem: "gcp", Aliases: []string{"gcs"}},
	{Name: "Cloud Functions", Category: "serverless", Ecosystem: "gcp", Aliases: []string{"google cloud functions"}},
	{Name: "BigQuery", Category: "analytics", Ecosystem: "gcp"},
	{Name: "Vertex AI", Category: "ai", Ecosystem: "gcp"},
	{Name: "OpenAI", Category: "ai", Ecosystem: "open_source", Aliases: []string{"openai api"}},
	{Name: "Ollama", Category: "ai", Ecosystem: "open_source"},
	{Name: "PyTorch", Category: "ai", Ecosystem: "open_source"},
	{Name: "TensorFlow", Category: "ai", Ecosystem: "open_source"},
	{Name: "Celery", Category: "task_queue", Ecosystem: "open_source"},
	{Name: "Go", Category: "language", Ecosystem: "open_source", Aliases: []string{"golang"}},
	{Name: "Python", Category: "language", Ecosystem: "open_source"},
	{Name: "TypeScript", Category: "language", Ecosystem: "open_source"},
}
