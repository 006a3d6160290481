package dialogue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"strings"

	"github.com/philippgille/chromem-go"
	"github.com/sashabaranov/go-openai"
)

const (
	// charactersPerMovie caps how many speakers become selectable
	// characters; the two most talkative carry enough lines to imitate.
	charactersPerMovie = 2

	// retrievalLimit is how many of the character's own lines are pulled
	// into the prompt as speech samples.
	retrievalLimit = 5

	replyTemperature = 0.8
)

var (
	ErrUnknownMovie     = errors.New("dialogue: no data for movie")
	ErrUnknownCharacter = errors.New("dialogue: no such character in movie")
)

// Completer is the slice of the OpenAI client the engine needs. Satisfied by
// *openai.Client.
type Completer interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

type characterIndex struct {
	identity   CharacterIdentity
	persona    string
	collection *chromem.Collection
}

type movieIndex struct {
	data       *MovieData
	characters []CharacterIdentity
	byName     map[string]*characterIndex
}

// Engine answers chat turns in character. Each character gets an embedding
// collection over their own script lines; a reply retrieves the closest lines
// and hands them to the chat model as speech samples.
type Engine struct {
	completer Completer
	model     string
	movies    map[string]*movieIndex
}

// NewEngine embeds every indexed character's lines up front. With a local
// embedding func this is instant in tests; against the OpenAI API it is a
// one-time startup cost.
func NewEngine(ctx context.Context, movies map[string]*MovieData, completer Completer, embed chromem.EmbeddingFunc) (*Engine, error) {
	e := &Engine{
		completer: completer,
		model:     openai.GPT4oMini,
		movies:    make(map[string]*movieIndex, len(movies)),
	}

	db := chromem.NewDB()
	for id, data := range movies {
		idx := &movieIndex{
			data:   data,
			byName: make(map[string]*characterIndex),
		}
		for _, speaker := range data.TopSpeakers(charactersPerMovie) {
			ci, err := buildCharacterIndex(ctx, db, data, speaker, embed)
			if err != nil {
				return nil, fmt.Errorf("index %s/%s: %w", id, speaker, err)
			}
			idx.characters = append(idx.characters, ci.identity)
			idx.byName[speaker] = ci
		}
		e.movies[id] = idx
		slog.Info("dialogue: indexed movie",
			slog.String("movie_id", id),
			slog.Int("characters", len(idx.characters)),
			slog.Int("lines", len(data.Lines)))
	}
	return e, nil
}

func buildCharacterIndex(ctx context.Context, db *chromem.DB, data *MovieData, speaker string, embed chromem.EmbeddingFunc) (*characterIndex, error) {
	collection, err := db.GetOrCreateCollection(data.ID+"/"+speaker, nil, embed)
	if err != nil {
		return nil, err
	}

	lines := data.LinesBy(speaker)
	docs := make([]chromem.Document, 0, len(lines))
	for i, line := range lines {
		docs = append(docs, chromem.Document{
			ID:      fmt.Sprintf("%s-%d", speaker, i),
			Content: line,
		})
	}
	if len(docs) > 0 {
		if err := collection.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
			return nil, err
		}
	}

	avatar := data.Avatars[speaker]
	if avatar == "" {
		avatar = DefaultAvatarURL
	}
	return &characterIndex{
		identity:   CharacterIdentity{Name: speaker, AvatarURL: avatar},
		persona:    data.Personas[speaker],
		collection: collection,
	}, nil
}

// Characters lists the selectable characters of one movie.
func (e *Engine) Characters(movieID string) ([]CharacterIdentity, error) {
	idx, ok := e.movies[movieID]
	if !ok {
		return nil, ErrUnknownMovie
	}
	return idx.characters, nil
}

// Reply generates one in-character answer to userMessage.
func (e *Engine) Reply(ctx context.Context, movieID, characterName, userMessage string) (string, error) {
	idx, ok := e.movies[movieID]
	if !ok {
		return "", ErrUnknownMovie
	}
	ci, ok := idx.byName[characterName]
	if !ok {
		return "", ErrUnknownCharacter
	}

	samples, err := e.retrieve(ctx, ci, userMessage)
	if err != nil {
		return "", fmt.Errorf("retrieve lines: %w", err)
	}

	resp, err := e.completer.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       e.model,
		Temperature: replyTemperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt(characterName, ci.persona, samples)},
			{Role: openai.ChatMessageRoleUser, Content: userMessage},
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("chat completion: empty choices")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func (e *Engine) retrieve(ctx context.Context, ci *characterIndex, query string) ([]string, error) {
	limit := retrievalLimit
	if count := ci.collection.Count(); count < limit {
		limit = count
	}
	if limit == 0 {
		return nil, nil
	}

	results, err := ci.collection.Query(ctx, query, limit, nil, nil)
	if err != nil {
		return nil, err
	}

	samples := make([]string, 0, len(results))
	for _, res := range results {
		samples = append(samples, res.Content)
	}
	return samples, nil
}

func systemPrompt(name, persona string, samples []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "너는 영화 속 인물 '%s'이다. 반드시 이 인물의 말투와 성격을 유지하면서 한국어로 짧게 대답한다.\n", name)
	if persona != "" {
		fmt.Fprintf(&b, "\n인물 설정:\n%s\n", persona)
	}
	if len(samples) > 0 {
		b.WriteString("\n이 인물이 실제로 했던 대사:\n")
		for _, line := range samples {
			fmt.Fprintf(&b, "- %s\n", line)
		}
	}
	b.WriteString("\n설정을 벗어나는 질문에도 인물로서 자연스럽게 반응한다. 인공지능이라는 사실은 절대 언급하지 않는다.")
	return b.String()
}
