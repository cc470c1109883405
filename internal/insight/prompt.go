package insight

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/AlfeuAlves/autvya/internal/metrics"
	"github.com/AlfeuAlves/autvya/internal/model"
)

// promptSequenceLimit bounds how many trailing interactions the prompt
// lists. The model needs a flavor of recent behavior, not the full log.
const promptSequenceLimit = 20

// SystemPrompt frames every generation request. The hard rules (no
// diagnosis, no alarmism, complements professional care) are a product
// requirement, not a stylistic choice.
const SystemPrompt = `Você é um especialista em desenvolvimento infantil, com foco em crianças neurodiversas (autismo, TDAH, TEA e outros perfis).
Você analisa dados de interação de uma plataforma de comunicação aumentativa e alternativa (CAA) para crianças de 4 a 10 anos.

REGRAS FUNDAMENTAIS:
1. NUNCA emita diagnósticos clínicos ou afirmações médicas definitivas
2. NUNCA use linguagem alarmista ou que gere ansiedade nos cuidadores
3. Sempre enfatize que você complementa (não substitui) profissionais de saúde
4. Use linguagem acolhedora, positiva e baseada em pontos fortes
5. Todo o texto dos valores deve ser em português brasileiro
6. Respeite a privacidade e dignidade da criança

Seu papel é identificar padrões de comunicação, sugerir estratégias práticas e gerar insights baseados em evidências para pais e educadores.`

var phaseDescriptions = map[model.Phase]string{
	model.PhaseConnection:    "Fase 1 - Conexão: aprendendo a usar pictogramas básicos",
	model.PhaseChoice:        "Fase 2 - Escolha: selecionando entre opções contextuais",
	model.PhaseCommunication: "Fase 3 - Comunicação: combinando pictogramas para frases",
}

// BuildPrompt renders the per-request analysis prompt.
//
// Precondition: the caller has already verified the child has enough
// interactions for a meaningful analysis; the builder renders whatever
// it is given.
func BuildPrompt(child model.Child, m metrics.ChildMetrics) string {
	var b strings.Builder

	favorite := "N/A"
	if m.FavoriteButton != nil {
		favorite = *m.FavoriteButton
	}

	buttonCounts, _ := json.Marshal(m.ButtonCounts)
	usageByHour, _ := json.Marshal(m.UsageByHour)

	sensory := child.SensoryConfig
	if sensory == nil {
		sensory = map[string]any{}
	}
	sensoryJSON, _ := json.MarshalIndent(sensory, "", "  ")

	fmt.Fprintf(&b, "Analise os dados de interação da criança abaixo e gere um relatório estruturado em JSON.\n\n")
	fmt.Fprintf(&b, "## DADOS DA CRIANÇA\n")
	fmt.Fprintf(&b, "- Nome: %s\n", child.Name)
	fmt.Fprintf(&b, "- Idade: %d anos\n", child.Age)
	fmt.Fprintf(&b, "- Fase atual: %s\n\n", phaseDescriptions[child.Phase])

	fmt.Fprintf(&b, "## MÉTRICAS DE USO (últimos %d dias)\n", m.Period.Days)
	fmt.Fprintf(&b, "- Total de interações: %d\n", m.TotalInteractions)
	fmt.Fprintf(&b, "- Dias ativos: %d\n", m.ActiveDays)
	fmt.Fprintf(&b, "- Botão favorito: %s\n", favorite)
	fmt.Fprintf(&b, "- Duração média de sessão: %d segundos\n", m.AvgSessionDuration)
	fmt.Fprintf(&b, "- Distribuição por botão: %s\n", buttonCounts)
	fmt.Fprintf(&b, "- Uso por hora do dia: %s\n\n", usageByHour)

	fmt.Fprintf(&b, "## SEQUÊNCIA RECENTE (últimas interações)\n")
	seq := m.RecentSequence
	if len(seq) > promptSequenceLimit {
		seq = seq[len(seq)-promptSequenceLimit:]
	}
	loc := child.Location()
	for _, item := range seq {
		fmt.Fprintf(&b, "- %s em %s\n", item.Button, item.Timestamp.In(loc).Format("02/01/2006 15:04:05"))
	}

	fmt.Fprintf(&b, "\n## CONFIGURAÇÕES SENSORIAIS\n%s\n\n", sensoryJSON)

	b.WriteString(outputSchema)
	return b.String()
}

const outputSchema = "Por favor, responda APENAS com um JSON válido no seguinte formato:\n" +
	"```json\n" + `{
  "summary": "Parágrafo acolhedor para pais, linguagem simples, 2-3 frases",
  "estimated_level": "Descrição do nível de engajamento observado (sem diagnóstico)",
  "skills_observed": [
    "Habilidade observada 1",
    "Habilidade observada 2"
  ],
  "attention_points": [
    "Aspecto para observar/desenvolver 1"
  ],
  "recommendations": [
    {
      "title": "Título da recomendação",
      "description": "Descrição prática do que fazer",
      "category": "communication|routine|sensory|social"
    }
  ],
  "technical_report": {
    "communication_pattern": "Análise técnica do padrão de comunicação",
    "theoretical_references": "Conexão com Piaget, Vygotsky, BNCC quando aplicável",
    "behavioral_indicators": "Indicadores observados nos dados"
  },
  "disclaimer": "` + Disclaimer + `"
}` + "\n```"
