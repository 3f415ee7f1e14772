package domain

// Option catalogues offered by the intake form selects.

var IntakeChannelOptions = []string{
	"Atendimento",
	"DCOI-Invasão",
	"De Ofício",
	"Grupo Whats",
	"Memorando",
	"MP",
	"Obras",
	"Obras Móvel",
	"Operação Conjunta",
	"Ouvidoria",
	"Plantão",
	"Protocolo",
	"Solic. Diretor",
	"Outros",
}

var StreetTypeOptions = []string{
	"Rua", "Avenida", "Travessa", "Alameda", "Beco", "Rodovia", "Estrada", "Servidão", "Passarela",
}

var NeighborhoodOptions = []string{
	"Ariribá", "Jardim Bandeirantes", "Barra", "Centro", "Estados", "Estaleiro",
	"Estaleirinho", "Jardim Iate Clube", "Itapema", "Laranjeiras", "Lot. Denise",
	"Municípios", "Nações", "Nova Esperança", "Pinho", "Pioneiros", "Praia",
	"Praia dos Amores", "São Judas", "Taquaras", "Taquarinhas", "Várzea do Ranchinho",
	"Vila Fortaleza", "Vila Real",
}

var OnSitePresenceOptions = []string{
	"Atendido",
	"Constatado",
	"Imóvel Vazio",
	"Não atendido",
	"Não constatado",
	"Não encontrado",
	"Não resolvido",
	"Resolvido",
	"Outros",
}

var ActionTakenOptions = []string{
	"ACI-Multa",
	"Advertência",
	"Apreensão",
	"Embargado",
	"Interdição",
	"Intimação",
	"Intimação Adm.",
	"Intimação por AR",
	"Intimação por Edital",
	"Notificação",
	"Notificação ADM",
	"Notificação por AR",
	"Notificação por Edital",
	"Orientação",
	"Prorrogação",
	"Resolvido",
	"Retornar",
	"Suspenso",
}

// FormOptions is returned by GET /v1/options.
type FormOptions struct {
	IntakeChannels  []string      `json:"atendimento"`
	StreetTypes     []string      `json:"rua_tipo"`
	Neighborhoods   []string      `json:"bairro"`
	OnSitePresences []string      `json:"no_local"`
	ActionsTaken    []string      `json:"acao_tomada"`
	Statuses        []StatusLabel `json:"status"`
}

// DefaultFormOptions returns the catalogues in their declared order.
func DefaultFormOptions() FormOptions {
	return FormOptions{
		IntakeChannels:  IntakeChannelOptions,
		StreetTypes:     StreetTypeOptions,
		Neighborhoods:   NeighborhoodOptions,
		OnSitePresences: OnSitePresenceOptions,
		ActionsTaken:    ActionTakenOptions,
		Statuses:        AllStatusLabels,
	}
}
