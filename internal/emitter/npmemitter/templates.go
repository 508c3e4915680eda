package npmemitter

const header = "// Code generated by apigen. DO NOT EDIT.\n\n"

const interfaceTemplate = header + `{{range .Imports}}import type { {{.Name}} } from {{quote .From}};
{{end}}{{if .Imports}}
{{end}}{{doc .Doc ""}}export interface {{.Name}} {
{{- range .Fields}}
{{doc .Doc "  "}}  {{.Key}}?: {{.Type}};
{{- end}}
}
`

const requestTemplate = header + `import { formatValue, setMap } from "../support";

{{doc .Doc ""}}export class {{.Name}} {
  readonly command = {{quote .Command}};
  readonly isAsync = {{.Async}};
  private readonly params: Record<string, string> = {};

  constructor({{range $i, $p := .Required}}{{if $i}}, {{end}}{{$p.Arg}}: {{$p.Type}}{{end}}) {
{{- range .Required}}
    this.{{.Setter}}({{.Arg}});
{{- end}}
  }
{{range .Params}}
{{doc .Doc "  "}}  {{.Setter}}(value: {{.Type}}): this {
    {{.Encode}};
    return this;
  }
{{end}}
  toParams(): Record<string, string> {
    const out: Record<string, string> = { command: this.command };
    for (const key of Object.keys(this.params).sort()) {
      out[key] = this.params[key];
    }
    return out;
  }
}
`

const indexTemplate = header + `export const API_VERSION = {{quote .Version}};

export { formatValue, setMap } from "./support";
{{range .Types}}export type { {{.Name}} } from {{quote .From}};
{{end}}{{range .Requests}}export { {{.Name}} } from {{quote .From}};
{{end}}`

const supportTemplate = header + `export type Params = Record<string, string>;

export function formatValue(value: unknown): string {
  if (value instanceof Date) {
    return value.toISOString();
  }
  if (Array.isArray(value)) {
    return value.map((v) => formatValue(v)).join(",");
  }
  return String(value);
}

export function setMap(params: Params, name: string, value: Record<string, string>): void {
  Object.keys(value)
    .sort()
    .forEach((key, i) => {
      params[name + "[" + i + "].key"] = key;
      params[name + "[" + i + "].value"] = value[key];
    });
}
`

const tsconfig = `{
  "compilerOptions": {
    "target": "ES2020",
    "module": "ES2020",
    "moduleResolution": "node",
    "declaration": true,
    "strict": true,
    "outDir": "dist",
    "rootDir": "src"
  },
  "include": ["src"]
}
`
