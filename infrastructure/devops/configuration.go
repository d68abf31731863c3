package devops

import (
	"context"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
)

const DefaultParameterName = "databases"

type DBEntry struct {
	Name     string `yaml:"name"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Schema   string `yaml:"schema"`
}

// DSN renders the entry as a go-sql-driver/mysql data source name.
func (e *DBEntry) DSN() string {
	host := e.Host
	if e.Port > 0 && !strings.Contains(host, ":") {
		host = fmt.Sprintf("%s:%d", host, e.Port)
	}
	schema := e.Schema
	if schema == "" {
		schema = e.Name
	}
	return fmt.Sprintf("%s:%s@tcp(%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC", e.Username, e.Password, host, schema)
}

type ParameterGetter interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

func NewParameterGetter(ctx context.Context) (ParameterGetter, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return ssm.NewFromConfig(cfg), nil
}

// LoadDBConfig reads the YAML database list stored in an SSM parameter.
func LoadDBConfig(ctx context.Context, client ParameterGetter, paramName string) ([]DBEntry, error) {
	if paramName == "" {
		paramName = DefaultParameterName
	}

	out, err := client.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(paramName),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("get parameter: %w", err)
	}
	if out.Parameter == nil || out.Parameter.Value == nil {
		return nil, fmt.Errorf("parameter %s has no value", paramName)
	}

	var parsed []DBEntry
	if err := yaml.Unmarshal([]byte(*out.Parameter.Value), &parsed); err != nil {
		return nil, fmt.Errorf("unmarshal yaml: %w", err)
	}
	return parsed, nil
}

// LookupDSN finds the named database in the SSM list.
func LookupDSN(ctx context.Context, client ParameterGetter, paramName, dbName string) (string, error) {
	entries, err := LoadDBConfig(ctx, client, paramName)
	if err != nil {
		return "", err
	}
	for i := range entries {
		if strings.EqualFold(entries[i].Name, dbName) {
			return entries[i].DSN(), nil
		}
	}
	return "", fmt.Errorf("database %s not found in parameter %s", dbName, paramName)
}
