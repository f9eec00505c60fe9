// Package validation 提供共享的 validator 实例与错误信息格式化。
package validation

import (
	"errors"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

// New 返回注册了自定义规则、以 json 字段名报告错误的 validator
func New() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(jsonFieldName)
	// notblank: 字符串去掉首尾空白后不能为空
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		field := fl.Field()
		if field.Kind() == reflect.String {
			return strings.TrimSpace(field.String()) != ""
		}
		return !field.IsZero()
	})
	return v
}

func jsonFieldName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	if name == "" {
		return fld.Name
	}
	return name
}

// MissingFields 从校验错误中提取缺失或空白的字段路径（如 author.firstName），排序去重
func MissingFields(err error) []string {
	return fieldPaths(err, func(fe validator.FieldError) string {
		switch fe.Tag() {
		case "required", "notblank":
			return fieldPath(fe)
		}
		return ""
	})
}

// TooLong 提取超过长度上限的字段，形如 "title (max 255)"
func TooLong(err error) []string {
	return fieldPaths(err, func(fe validator.FieldError) string {
		if fe.Tag() != "max" {
			return ""
		}
		return fieldPath(fe) + " (max " + fe.Param() + ")"
	})
}

func fieldPaths(err error, pick func(validator.FieldError) string) []string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	seen := make(map[string]struct{}, len(verrs))
	var out []string
	for _, fe := range verrs {
		path := pick(fe)
		if path == "" {
			continue
		}
		if _, ok := seen[path]; ok {
			continue
		}
		seen[path] = struct{}{}
		out = append(out, path)
	}
	sort.Strings(out)
	return out
}

// fieldPath 去掉顶层结构体名
func fieldPath(fe validator.FieldError) string {
	path := fe.Namespace()
	if i := strings.IndexByte(path, '.'); i >= 0 {
		path = path[i+1:]
	}
	return path
}
