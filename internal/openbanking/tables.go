package openbanking

// productFamilyKeys is the fixed ordered list of product family keys scanned
// on each company object. The first key present selects the family.
var productFamilyKeys = []string{
	"personalAccounts",
	"businessAccounts",
	"personalCreditCards",
	"businessCreditCards",
	"personalLoans",
	"businessLoans",
	"personalFinancings",
	"businessFinancings",
	"personalInvoiceFinancings",
	"businessInvoiceFinancings",
	"personalUnarrangedAccountOverdraft",
	"businessUnarrangedAccountOverdraft",
}

// productNames maps Bacen product type codes to display names, plus a few
// non-standard variants observed in the wild.
var productNames = map[string]string{
	"CONTA_DEPOSITO_A_VISTA":                                     "Conta corrente",
	"CONTA_POUPANCA":                                             "Conta poupança",
	"CONTA_PAGAMENTO_PRE_PAGA":                                   "Conta de pagamento pré-paga",
	"DESCONTO_DUPLICATAS":                                        "Desconto de duplicatas",
	"DESCONTO_CHEQUES":                                           "Desconto de cheques",
	"ANTECIPACAO_FATURA_CARTAO_CREDITO":                          "Antecipação de fatura de cartão de crédito",
	"OUTROS_DIREITOS_CREDITORIOS_DESCONTADOS":                    "Outros direitos creditórios descontados",
	"OUTROS_TITULOS_DESCONTADOS":                                 "Outros títulos descontados",
	"EMPRESTIMO_CREDITO_PESSOAL_CONSIGNADO":                      "Crédito pessoal consignado",
	"EMPRESTIMO_CREDITO_PESSOAL_SEM_CONSIGNACAO":                 "Crédito pessoal sem consignação",
	"EMPRESTIMO_HOME_EQUITY":                                     "Home equity",
	"EMPRESTIMO_MICROCREDITO_PRODUTIVO_ORIENTADO":                "Microcrédito produtivo orientado",
	"EMPRESTIMO_CHEQUE_ESPECIAL":                                 "Cheque especial",
	"EMPRESTIMO_CONTA_GARANTIDA":                                 "Conta garantida",
	"EMPRESTIMO_CAPITAL_GIRO_PRAZO_VENCIMENTO_ATE_365_DIAS":      "Capital de giro com prazo de vencimento até 365 dias",
	"EMPRESTIMO_CAPITAL_GIRO_PRAZO_VENCIMENTO_SUPERIOR_365_DIAS": "Capital de giro com prazo de vencimento superior a 365 dias",
	"EMPRESTIMO_CAPITAL_GIRO_ROTATIVO":                           "Capital de giro rotativo",
	"FINANCIAMENTO_AQUISICAO_BENS_VEICULOS_AUTOMOTORES":          "Aquisição de bens - Veículos automotores",
	"FINANCIAMENTO_AQUISICAO_BENS_OUTROS_BENS":                   "Aquisição de bens - Outros bens",
	"FINANCIAMENTO_MICROCREDITO":                                 "Financimento microcrédito",
	"FINANCIAMENTO_RURAL_CUSTEIO":                                "Financimento rural - Custeio",
	"FINANCIAMENTO_RURAL_INVESTIMENTO":                           "Financimento rural - Investimento",
	"FINANCIAMENTO_RURAL_COMERCIALIZACAO":                        "Financimento rural - Comercialização",
	"FINANCIAMENTO_RURAL_INDUSTRIALIZACAO":                       "Financimento rural - Industrialização",
	"FINANCIAMENTO_IMOBILIARIO_SISTEMA_FINANCEIRO_HABITACAO_SFH": "Financimento imobiliário - Sistema Financeiro da Habitação (SFH)",
	"FINANCIAMENTO_IMOBILIARIO_SISTEMA_FINANCEIRO_HABITACAO_SFI": "Financimento imobiliário - Sistema Financeiro da Imobiliário (SFI)",

	// Non-standard variants.
	"CONTA_PAGAMENTO":                             "Conta salário",
	"EMPRESTIMO_CREDITO_PESSOAL":                  "Crédito pessoal sem consignação",
	"EMPRESTIMO_CREDITO_PESSOAL_NAO_CONSIGNADO":   "Crédito pessoal sem consignação",
	"FINANCIAMENTO_IMOBILIARIO_SISTEMA_FINANCEIRO_HABITACAO-SFH": "Financimento imobiliário - Sistema Financeiro da Habitação (SFH)",
	"FINANCIAMENTO_IMOBILIARIO_SISTEMA_FINANCEIRO_HABITACAO-SFI": "Financimento imobiliário - Sistema Financeiro da Imobiliário (SFI)",
}

// keyCategories maps product family keys to coarse product categories.
// Keys outside the table fall back to CategoryOther, never an error.
var keyCategories = map[string]string{
	"personalAccounts":                   "Conta Corrente",
	"businessAccounts":                   "Conta Corrente",
	"personalCreditCards":                "Cartão de Crédito",
	"businessCreditCards":                "Cartão de Crédito",
	"personalLoans":                      "Empréstimo",
	"businessLoans":                      "Empréstimo",
	"personalFinancings":                 "Financiamento",
	"businessFinancings":                 "Financiamento",
	"personalInvoiceFinancings":          "Antecipação de Recebíveis",
	"businessInvoiceFinancings":          "Antecipação de Recebíveis",
	"personalUnarrangedAccountOverdraft": "Adiantamento a Depositante",
	"businessUnarrangedAccountOverdraft": "Adiantamento a Depositante",
}

// CategoryOther is the fallback category for unknown product family keys.
const CategoryOther = "Outros"

// overdraftName is the fixed display name for unarranged overdraft products.
const overdraftName = "Adiantamento a Depositante"

func isOverdraftKey(key string) bool {
	return key == "personalUnarrangedAccountOverdraft" || key == "businessUnarrangedAccountOverdraft"
}

func isCreditCardKey(key string) bool {
	return key == "personalCreditCards" || key == "businessCreditCards"
}
