package home

import (
	"net/http"

	"github.com/dalemusser/waffle/pantry/templates"
	"go.uber.org/zap"

	"github.com/dmoreira/cobrafacil/internal/app/system/viewdata"
)

// Handler serves the marketing landing page.
type Handler struct {
	Log *zap.Logger
}

func NewHandler(logger *zap.Logger) *Handler {
	return &Handler{Log: logger}
}

type featureVM struct {
	Icon  string
	Title string
	Text  string
}

type planVM struct {
	Name     string
	Price    string
	Period   string
	Features []string
	Featured bool
}

type faqVM struct {
	Question string
	Answer   string
}

type landingData struct {
	viewdata.BaseVM
	Tagline  string
	Features []featureVM
	Plans    []planVM
	FAQ      []faqVM
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET / – landing                                                             |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeRoot(w http.ResponseWriter, r *http.Request) {
	data := landingData{
		BaseVM:  viewdata.NewBaseVM(r, "Cobrança automática por WhatsApp", "/"),
		Tagline: "Lembretes de boleto automáticos pelo WhatsApp. Menos inadimplência, sem planilhas.",
		Features: []featureVM{
			{Icon: "🔔", Title: "Lembretes automáticos", Text: "Seus clientes recebem o lembrete dias antes do vencimento, sem você levantar um dedo."},
			{Icon: "📊", Title: "Painel de cobranças", Text: "Boletos pendentes, pagos e vencidos em uma única tela."},
			{Icon: "💬", Title: "Mensagens no seu tom", Text: "Personalize o texto do lembrete com o nome do cliente, valor e data."},
			{Icon: "🔒", Title: "Dados isolados por empresa", Text: "Cada empresa enxerga apenas seus próprios clientes e boletos."},
		},
		Plans: []planVM{
			{Name: "Starter", Price: "R$ 49", Period: "/mês", Features: []string{"Até 50 clientes", "Lembretes automáticos", "1 usuário"}},
			{Name: "Pro", Price: "R$ 99", Period: "/mês", Features: []string{"Clientes ilimitados", "2º lembrete configurável", "Usuários ilimitados"}, Featured: true},
			{Name: "Enterprise", Price: "Sob consulta", Period: "", Features: []string{"Tudo do Pro", "Suporte dedicado", "Integração com seu ERP"}},
		},
		FAQ: []faqVM{
			{Question: "Preciso instalar algo no meu celular?", Answer: "Não. Os lembretes são agendados na plataforma e enviados pela nossa infraestrutura."},
			{Question: "Posso mudar o texto das mensagens?", Answer: "Sim, o modelo de mensagem é configurável por empresa nas configurações."},
			{Question: "Como cancelo um lembrete?", Answer: "Lembretes pendentes podem ser cancelados a qualquer momento na tela de lembretes."},
		},
	}

	templates.Render(w, r, "home", data)
}
