package csitest

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jingkaihe/skillet/pkg/csi"
)

func TestStubCsi(t *testing.T) {
	ctx := context.Background()
	c := NewStubCsi()

	completion := csi.Complete(ctx, c, csi.NewCompletionRequest("model", "Say hello"))
	assert.Equal(t, "Say hello", completion.Text)
	assert.Equal(t, csi.FinishReasonStop, completion.FinishReason)

	chat := csi.Chat(ctx, c, csi.NewChatRequest("model", csi.SystemMessage("sys")).AndMessage(csi.UserMessage("ping")))
	assert.Equal(t, csi.AssistantMessage("ping"), chat.Message)

	assert.Equal(t, []string{"123456"}, csi.Chunk(ctx, c, csi.NewChunkRequest("123456", csi.NewChunkParams("model", 1))))
	assert.Empty(t, csi.Search(ctx, c, csi.NewSearchRequest("q", csi.NewIndexPath("n", "c", "i"))))
	assert.Nil(t, csi.SelectLanguage(ctx, c, csi.NewSelectLanguageRequest("Hallo", csi.LanguageDeu)))

	path := csi.NewDocumentPath("ns", "col", "doc")
	doc, err := csi.DocumentAs[map[string]any](ctx, c, path)
	require.NoError(t, err)
	assert.Equal(t, path, doc.Path)
	assert.Empty(t, doc.Contents)
	assert.Nil(t, doc.Metadata)

	meta, err := csi.DocumentMetadataAs[map[string]any](ctx, c, path)
	require.NoError(t, err)
	assert.Nil(t, meta)
}

func TestBatch_PreservesOrder(t *testing.T) {
	ctx := context.Background()
	rng := rand.New(rand.NewPCG(7, 11))
	stubServer := newTestServer(t, NewStubCsi())

	capabilities := []struct {
		name string
		c    csi.Csi
	}{
		{name: "stub", c: NewStubCsi()},
		{name: "dev", c: NewDevCsi(stubServer.URL, testToken, WithTB(t))},
	}

	for _, tt := range capabilities {
		t.Run(tt.name, func(t *testing.T) {
			for round := 0; round < 5; round++ {
				perm := rng.Perm(8)
				completions := make([]csi.CompletionRequest, 0, len(perm))
				chats := make([]csi.ChatRequest, 0, len(perm))
				chunks := make([]csi.ChunkRequest, 0, len(perm))
				paths := make([]csi.DocumentPath, 0, len(perm))
				for _, n := range perm {
					key := fmt.Sprintf("item-%d", n)
					completions = append(completions, csi.NewCompletionRequest("model", key))
					chats = append(chats, csi.NewChatRequest("model", csi.UserMessage(key)))
					chunks = append(chunks, csi.NewChunkRequest(key, csi.NewChunkParams("model", 16)))
					paths = append(paths, csi.NewDocumentPath("ns", "col", key))
				}

				completed := tt.c.CompleteAll(ctx, completions)
				chatted := tt.c.ChatAll(ctx, chats)
				chunked := tt.c.ChunkAll(ctx, chunks)
				docs, err := tt.c.Documents(ctx, paths)
				require.NoError(t, err)
				require.Len(t, completed, len(perm))
				require.Len(t, chatted, len(perm))
				require.Len(t, chunked, len(perm))
				require.Len(t, docs, len(perm))

				for i, n := range perm {
					key := fmt.Sprintf("item-%d", n)
					assert.Equal(t, key, completed[i].Text)
					assert.Equal(t, key, chatted[i].Message.Content)
					assert.Equal(t, []string{key}, chunked[i])
					assert.Equal(t, key, docs[i].Path.Name)
				}
			}
		})
	}

	t.Run("dev search and language", func(t *testing.T) {
		c := NewDevCsi(newTestServer(t, libraryCsi{}).URL, testToken, WithTB(t))
		for round := 0; round < 5; round++ {
			perm := rng.Perm(8)
			searches := make([]csi.SearchRequest, 0, len(perm))
			selections := make([]csi.SelectLanguageRequest, 0, len(perm))
			for _, n := range perm {
				searches = append(searches, csi.NewSearchRequest(strings.Repeat("q", n+1), csi.NewIndexPath("ns", "library", "idx")))
				languages := []csi.LanguageCode{csi.LanguageEng}
				if n%2 == 0 {
					languages = append(languages, csi.LanguageDeu)
				}
				selections = append(selections, csi.NewSelectLanguageRequest("Hallo", languages...))
			}

			found := c.SearchAll(ctx, searches)
			selected := c.SelectLanguageAll(ctx, selections)
			require.Len(t, found, len(perm))
			require.Len(t, selected, len(perm))

			for i, n := range perm {
				require.Len(t, found[i], 1)
				assert.Equal(t, uint32(n+1), found[i][0].End.Position)
				if n%2 == 0 {
					require.NotNil(t, selected[i])
					assert.Equal(t, csi.LanguageDeu, *selected[i])
				} else {
					assert.Nil(t, selected[i])
				}
			}
		}
	})

	assert.Empty(t, NewStubCsi().CompleteAll(ctx, nil))
	assert.Len(t, NewStubCsi().SearchAll(ctx, make([]csi.SearchRequest, 4)), 4)
}

func TestMockCsi(t *testing.T) {
	ctx := context.Background()
	c := NewMockCsi("Paris")

	assert.Equal(t, "Paris", csi.Complete(ctx, c, csi.NewCompletionRequest("model", "Capital of France?")).Text)

	chat := csi.Chat(ctx, c, csi.NewChatRequest("model", csi.UserMessage("Capital of France?")))
	assert.Equal(t, csi.RoleAssistant, chat.Message.Role)
	assert.Equal(t, "Paris", chat.Message.Content)

	assert.Equal(t, []string{"Paris"}, csi.Chunk(ctx, c, csi.NewChunkRequest("anything", csi.NewChunkParams("model", 10))))
	assert.Empty(t, csi.Search(ctx, c, csi.NewSearchRequest("q", csi.NewIndexPath("n", "c", "i"))))
	assert.Nil(t, csi.SelectLanguage(ctx, c, csi.NewSelectLanguageRequest("Bonjour", csi.LanguageFra)))

	doc, err := csi.DocumentAs[struct{}](ctx, c, csi.NewDocumentPath("n", "c", "d"))
	require.NoError(t, err)
	assert.Equal(t, "Paris", doc.Text())
	assert.Nil(t, doc.Metadata)

	results := c.ChatAll(ctx, make([]csi.ChatRequest, 3))
	assert.Len(t, results, 3)
}
