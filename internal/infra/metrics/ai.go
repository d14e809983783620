package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(aiTokensIn, aiTokensOut, searchCallsTotal) }

var aiTokensIn = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "ai_tokens_in",
		Help: "Estimated prompt (input) tokens per provider/model.",
	},
	[]string{"provider", "model"},
)

var aiTokensOut = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "ai_tokens_out",
		Help: "Estimated completion (output) tokens per provider/model.",
	},
	[]string{"provider", "model"},
)

var searchCallsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "search_calls_total",
		Help: "Web search calls, labeled by outcome.",
	},
	[]string{"outcome"}, // 'ok', 'error'
)

func ObserveChatTokens(provider, model string, tokensIn, tokensOut int) {
	lbl := []string{norm(provider), norm(model)}
	aiTokensIn.WithLabelValues(lbl...).Add(float64(tokensIn))
	aiTokensOut.WithLabelValues(lbl...).Add(float64(tokensOut))
}

func IncSearchCall(outcome string) {
	searchCallsTotal.WithLabelValues(norm(outcome)).Inc()
}
