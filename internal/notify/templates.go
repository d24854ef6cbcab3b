package notify

import "html/template"

var transactionTmpl = template.Must(template.New("transaction").Parse(`<div style="font-family:Calibri, Arial, sans-serif;font-size:11pt;color:#111;">
  <p>Olá <b>{{.Coordinator}}</b>,</p>
  <p>{{.Lead}} <b>{{.Worker}}</b>.</p>
  <b>CPF:</b> {{or .CPF "-"}}<br>
  <b>Responsável:</b> {{or .Responsible "-"}}<br>
  <b>Turno:</b> {{or .Shift "-"}}<br>
  <b>Centro de Custo:</b> {{or .CostCenter "-"}}<br>
  {{- range .Extra}}
  <b>{{.Label}}:</b> {{or .Value "-"}}<br>
  {{- end}}
  <b>Data:</b> {{.Date}}<br><br>

  <table style="border-collapse:collapse;width:auto;font-size:11pt;">
    <thead>
      <tr style="background:#f0f0f0;">
        <th style="text-align:left;padding:6px;border-bottom:1px solid #ccc;width:220px;">{{.ItemHeader}}</th>
        <th style="text-align:center;padding:6px;border-bottom:1px solid #ccc;width:100px;">Tam</th>
        <th style="text-align:center;padding:6px;border-bottom:1px solid #ccc;width:80px;">Qtd</th>
      </tr>
    </thead>
    <tbody>
      {{- range .Lines}}
      <tr>
        <td style="padding:4px 8px;border-bottom:1px solid #ccc;text-align:left;">{{.Item}}</td>
        <td style="padding:4px 8px;border-bottom:1px solid #ccc;text-align:center;">{{or .Size "-"}}</td>
        <td style="padding:4px 8px;border-bottom:1px solid #ccc;text-align:center;">{{.Quantity}}</td>
      </tr>
      {{- else}}
      <tr><td colspan="3">Nenhum item listado.</td></tr>
      {{- end}}
    </tbody>
  </table>
  <p>Atenciosamente,<br>Setor de Almoxarifado.</p>
  <p><b>{{range $i, $l := .Footer}}{{if $i}}<br>{{end}}{{$l}}{{end}}</b></p>
</div>
`))

var welcomeTmpl = template.Must(template.New("welcome").Parse(`<div style="font-family:Calibri, Arial, sans-serif;font-size:11pt;color:#111;">
  <p>Prezado(a) <b>{{.Name}}</b>,</p>
  <p>Seu e-mail <b>({{.Email}})</b> foi cadastrado com sucesso no Sistema de Almoxarifado.</p>
  <p>A partir de agora, você receberá notificações automáticas sobre empréstimos,
  devoluções e saídas de insumos relacionados à sua área.</p>
  <p>Se você não realizou este cadastro, por favor, entre em contato com o setor
  de Almoxarifado.</p>
  <p><b>Data do Cadastro:</b> {{.Date}}</p>
  <p>Atenciosamente,<br>Setor de Almoxarifado.</p>
  <p><b>{{range $i, $l := .Footer}}{{if $i}}<br>{{end}}{{$l}}{{end}}</b></p>
</div>
`))

type field struct {
	Label string
	Value string
}

type line struct {
	Item     string
	Size     string
	Quantity int
}

type transactionData struct {
	Coordinator string
	Lead        string
	Worker      string
	CPF         string
	Responsible string
	Shift       string
	CostCenter  string
	Extra       []field
	Date        string
	ItemHeader  string
	Lines       []line
	Footer      []string
}

type welcomeData struct {
	Name   string
	Email  string
	Date   string
	Footer []string
}
