package retrieve

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/ppiankov/factlens/internal/model"
)

func TestSubmittedRetriever_Fetch(t *testing.T) {
	var hits atomic.Int32
	paragraph := "<p>" + strings.Repeat("정부는 오늘 새로운 정책을 발표했다. 이 정책은 많은 사람들에게 영향을 미칠 것으로 보인다. ", 10) + "</p>"

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		switch r.URL.Path {
		case "/post":
			_, _ = fmt.Fprintf(w, `<html><head><title>정책 발표</title></head><body><article>%s%s%s</article></body></html>`,
				paragraph, paragraph, paragraph)
		case "/empty":
			_, _ = fmt.Fprint(w, "<html><body></body></html>")
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	r := NewSubmittedRetriever(testFetcher(), model.DefaultConfig().Retrieval, 4, nil, nil)
	docs := r.Fetch(context.Background(), []string{
		"ftp://example.com/file",
		"not a url",
		server.URL + "/post",
		server.URL + "/post",
		server.URL + "/empty",
		server.URL + "/missing",
		server.URL + "/over-cap",
	})

	if len(docs) != 1 {
		t.Fatalf("Expected 1 document, got %d", len(docs))
	}
	if docs[0].Kind != model.EvidenceKindSubmitted {
		t.Errorf("Expected submitted kind, got %s", docs[0].Kind)
	}
	if docs[0].URL != server.URL+"/post" {
		t.Errorf("Unexpected URL: %s", docs[0].URL)
	}
	if !strings.Contains(docs[0].Body, "새로운 정책") {
		t.Errorf("Expected article text, got %q", docs[0].Body)
	}
	if n := len([]rune(docs[0].Body)); n > 2003 {
		t.Errorf("Expected capped body, got %d runes", n)
	}

	// post, empty, missing; the fourth valid URL is over the cap
	if hits.Load() != 3 {
		t.Errorf("Expected 3 requests, got %d", hits.Load())
	}
}

func TestSubmittedRetriever_NoURLs(t *testing.T) {
	r := NewSubmittedRetriever(testFetcher(), model.DefaultConfig().Retrieval, 4, nil, nil)
	if docs := r.Fetch(context.Background(), nil); len(docs) != 0 {
		t.Errorf("Expected no documents, got %d", len(docs))
	}
}
