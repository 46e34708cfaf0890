package llm

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/amethystkombucha/chatbot/classifier"
	"github.com/amethystkombucha/chatbot/internal/catalog"
)

type fakeGenerator struct {
	reply   string
	err     error
	prompts []string
}

func (f *fakeGenerator) Generate(_ context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	return f.reply, f.err
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestBuildPromptSections(t *testing.T) {
	cat := catalog.Default()
	tests := []struct {
		message string
		intent  string
		want    []string
		notWant []string
	}{
		{
			"berapa harga teh hijau", "faq",
			[]string{"PRODUK YANG DISEBUTKAN", "Teh Hijau", "Rp 48.000", "PERTANYAAN PELANGGAN: berapa harga teh hijau"},
			[]string{"DAFTAR PRODUK", "MANFAAT KOMBUCHA", "TESTIMONI"},
		},
		{
			"produk apa saja", "product",
			[]string{"DAFTAR PRODUK KOMBUCHA AMETHYST", "Kopi Kombucha: Rp 58.000"},
			[]string{"PRODUK YANG DISEBUTKAN"},
		},
		{
			"apa manfaatnya", "general",
			[]string{"MANFAAT KOMBUCHA", "Detoksifikasi"},
			nil,
		},
		{
			"ada review pelanggan", "general",
			[]string{"TESTIMONI PELANGGAN", "Sarah L."},
			nil,
		},
	}
	for _, tt := range tests {
		prompt := BuildPrompt(cat, tt.message, tt.intent)
		for _, s := range tt.want {
			if !strings.Contains(prompt, s) {
				t.Errorf("BuildPrompt(%q, %s) missing %q", tt.message, tt.intent, s)
			}
		}
		for _, s := range tt.notWant {
			if strings.Contains(prompt, s) {
				t.Errorf("BuildPrompt(%q, %s) unexpectedly contains %q", tt.message, tt.intent, s)
			}
		}
		if !strings.HasSuffix(prompt, "JAWABAN:") {
			t.Errorf("prompt should end with the answer cue")
		}
	}
}

func TestConfidence(t *testing.T) {
	cat := catalog.Default()
	tests := []struct {
		reply string
		want  float64
	}{
		{"ok", 0.5},
		{"ok.", 0.55},
		{"Teh Hijau", 0.7},
		{"Kaya probiotik", 0.65},
		{strings.Repeat("a", 60), 0.6},
		{strings.Repeat("a", 300), 0.5},
		{"Teh Hijau kaya antioksidan dan sangat baik untuk pencernaan Anda setiap hari.", 0.95},
	}
	for _, tt := range tests {
		if got := Confidence(cat, tt.reply); !almostEqual(got, tt.want) {
			t.Errorf("Confidence(%q) = %v, want %v", tt.reply, got, tt.want)
		}
	}
}

func TestParseIntent(t *testing.T) {
	tests := []struct {
		reply   string
		want    classifier.Result
		wantErr bool
	}{
		{"product|0.85", classifier.Result{Intent: "product", Confidence: 0.85}, false},
		{"  FAQ | 0.9 \n", classifier.Result{Intent: "faq", Confidence: 0.9}, false},
		{"```\nbenefits|1.7\n```", classifier.Result{Intent: "benefits", Confidence: 1}, false},
		{"greeting|-0.2", classifier.Result{Intent: "greeting", Confidence: 0}, false},
		{"general", classifier.Result{Intent: "general", Confidence: 0.5}, false},
		{"general|high", classifier.Result{Intent: "general", Confidence: 0.5}, false},
		{"faq|0", classifier.Result{Intent: "faq", Confidence: 0.5}, false},
		{"faq|0.0", classifier.Result{Intent: "faq", Confidence: 0.5}, false},
		{"general|NaN", classifier.Result{Intent: "general", Confidence: 0.5}, false},
		{"[product]|[0.7]", classifier.Result{Intent: "product", Confidence: 0.7}, false},
		{"weather|0.9", classifier.Result{}, true},
		{"", classifier.Result{}, true},
	}
	for _, tt := range tests {
		got, err := ParseIntent(tt.reply)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseIntent(%q) error = %v, wantErr %v", tt.reply, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseIntent(%q) = %+v, want %+v", tt.reply, got, tt.want)
		}
	}
}

func TestReply(t *testing.T) {
	gen := &fakeGenerator{reply: "  Teh Hijau dijual Rp 48.000.  "}
	r := NewResponder(gen, catalog.Default())
	resp, err := r.Reply(context.Background(), "berapa harga teh hijau", "faq")
	if err != nil {
		t.Fatal(err)
	}
	if resp.Text != "Teh Hijau dijual Rp 48.000." {
		t.Errorf("Text = %q", resp.Text)
	}
	if !almostEqual(resp.Confidence, 0.75) {
		t.Errorf("Confidence = %v, want 0.75", resp.Confidence)
	}
	if len(gen.prompts) != 1 || !strings.Contains(gen.prompts[0], "PRODUK YANG DISEBUTKAN") {
		t.Error("reply prompt missing mentioned product context")
	}
}

func TestReplyErrors(t *testing.T) {
	r := NewResponder(&fakeGenerator{err: ErrUnavailable}, catalog.Default())
	if _, err := r.Reply(context.Background(), "halo", "greeting"); !errors.Is(err, ErrUnavailable) {
		t.Errorf("Reply error = %v, want ErrUnavailable", err)
	}
	r = NewResponder(&fakeGenerator{reply: "   "}, catalog.Default())
	if _, err := r.Reply(context.Background(), "halo", "greeting"); !errors.Is(err, ErrNoCandidates) {
		t.Errorf("Reply error = %v, want ErrNoCandidates", err)
	}
}

func TestClassifyIntent(t *testing.T) {
	gen := &fakeGenerator{reply: "benefits|0.8"}
	r := NewResponder(gen, catalog.Default())
	got := r.ClassifyIntent(context.Background(), "manfaat kombucha")
	if got != (classifier.Result{Intent: "benefits", Confidence: 0.8}) {
		t.Errorf("ClassifyIntent = %+v", got)
	}
	if !strings.Contains(gen.prompts[0], `Pesan: "manfaat kombucha"`) {
		t.Error("intent prompt does not quote the message")
	}

	fallback := classifier.Result{Intent: "general", Confidence: 0.5}
	for _, g := range []*fakeGenerator{{err: errors.New("boom")}, {reply: "nonsense"}} {
		if got := NewResponder(g, catalog.Default()).ClassifyIntent(context.Background(), "x"); got != fallback {
			t.Errorf("ClassifyIntent fallback = %+v", got)
		}
	}
}

func TestRecommend(t *testing.T) {
	gen := &fakeGenerator{reply: "Coba Kopi Kombucha."}
	r := NewResponder(gen, catalog.Default())
	if got := r.Recommend(context.Background(), []string{"energi", "kopi"}); got != "Coba Kopi Kombucha." {
		t.Errorf("Recommend = %q", got)
	}
	if !strings.Contains(gen.prompts[0], "preferensi pelanggan: energi, kopi") {
		t.Error("recommendation prompt missing preferences")
	}

	failing := NewResponder(&fakeGenerator{err: errors.New("boom")}, catalog.Default())
	if got := failing.Recommend(context.Background(), nil); got != RecommendationFallback {
		t.Errorf("Recommend fallback = %q", got)
	}
}

func TestNewGeminiWithoutKey(t *testing.T) {
	if _, err := NewGemini(context.Background(), DefaultConfig()); !errors.Is(err, ErrUnavailable) {
		t.Errorf("NewGemini error = %v, want ErrUnavailable", err)
	}
}
