package pyemitter

const header = "# Code generated by apigen. DO NOT EDIT.\n"

const dataclassTemplate = header + `"""{{doc .Summary}}"""

from __future__ import annotations

from dataclasses import dataclass, field
from datetime import datetime
from typing import Any, Dict, List, Optional, Union

from {{.Module}} import _support
{{- range .Imports}}
from {{.Module}} import {{.Name}}
{{- end}}


@dataclass
class {{.Name}}:
    """{{doc .Doc}}"""
{{range .Fields}}
    {{.Attr}}: {{.Type}} = {{.Default}}
{{- if .Doc}}
    """{{doc .Doc}}"""
{{- end}}
{{- end}}

    @classmethod
    def from_dict(cls, data: Dict[str, Any]) -> "{{.Name}}":
        return cls(
{{- range .Fields}}
            {{.Attr}}={{.Parse}},
{{- end}}
        )
`

const requestTemplate = header + `"""{{doc .Summary}}"""

from __future__ import annotations

from datetime import datetime
from typing import Any, Dict, List

from {{.Module}} import _support


class {{.Name}}:
    """{{doc .Doc}}"""

    command = {{quote .Command}}
    is_async = {{if .Async}}True{{else}}False{{end}}

    def __init__(self{{range .Required}}, {{.Attr}}: {{.Type}}{{end}}) -> None:
        self._params: Dict[str, str] = {}
{{- range .Required}}
        self.set_{{.Attr}}({{.Attr}})
{{- end}}
{{range .Params}}
    def set_{{.Attr}}(self, value: {{.Type}}) -> "{{$.Name}}":
{{- if .Doc}}
        """{{doc .Doc}}"""
{{- end}}
        {{.Encode}}
        return self
{{end}}
    def to_params(self) -> Dict[str, str]:
        """Return the query parameters including the command, sorted by name."""
        out = dict(self._params)
        out["command"] = self.command
        return dict(sorted(out.items()))
`

const initTemplate = header + `"""{{doc .Doc}}"""
{{- if .Version}}

API_VERSION = {{quote .Version}}
{{- end}}
{{- if .Exports}}

{{range .Exports}}from .{{.Module}} import {{.Name}}
{{end}}
__all__ = [
{{- range .Exports}}
    {{quote .Name}},
{{- end}}
]
{{- end}}
`

const supportTemplate = header + `"""Helpers shared by the generated request and response classes."""

from __future__ import annotations

from datetime import datetime
from typing import Any, Dict, Optional, Union

_DATE_FORMATS = ("%Y-%m-%dT%H:%M:%S%z", "%Y-%m-%dT%H:%M:%S", "%Y-%m-%d")


def parse_date(value: Any) -> Optional[Union[datetime, str]]:
    """Parse a timestamp, keeping the raw string when no format matches."""
    if value is None or isinstance(value, datetime):
        return value
    text = str(value)
    for fmt in _DATE_FORMATS:
        try:
            return datetime.strptime(text, fmt)
        except ValueError:
            continue
    return text


def format_value(value: Any) -> str:
    """Render a request value the way the API expects it on the query string."""
    if isinstance(value, bool):
        return "true" if value else "false"
    if isinstance(value, datetime):
        return value.strftime(_DATE_FORMATS[0])
    if isinstance(value, (list, tuple)):
        return ",".join(format_value(v) for v in value)
    return str(value)


def set_map(params: Dict[str, str], name: str, value: Dict[str, Any]) -> None:
    """Encode a map parameter as name[i].key / name[i].value pairs."""
    for i, key in enumerate(sorted(value)):
        params[f"{name}[{i}].key"] = str(key)
        params[f"{name}[{i}].value"] = format_value(value[key])
`
